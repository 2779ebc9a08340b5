// Package jsonresume converts the completion provider's CV output into the
// JSON Resume shape (basics/work/education/skills/projects/certificates/
// interests). The conversion is a pure, stateless transform: missing
// optional fields coalesce to empty structures and empty slices, never nil,
// so downstream marshaling always emits arrays.
package jsonresume

// GeneratedCV is the domain-specific JSON schema produced by the CV
// instruction template.
type GeneratedCV struct {
	PersonalInfo struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Address  string `json:"address"`
		Title    string `json:"title"`
		Summary  string `json:"summary"`
	} `json:"personal_info"`

	Experiences []struct {
		Company     string   `json:"company"`
		Position    string   `json:"position"`
		StartDate   string   `json:"start_date"`
		EndDate     string   `json:"end_date"`
		Description string   `json:"description"`
		Highlights  []string `json:"highlights"`
	} `json:"experiences"`

	Education []struct {
		Institution string `json:"institution"`
		Degree      string `json:"degree"`
		Field       string `json:"field"`
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
	} `json:"education"`

	Skills struct {
		Technical []string `json:"technical"`
		Soft      []string `json:"soft"`
		Languages []struct {
			Name  string `json:"name"`
			Level string `json:"level"`
		} `json:"languages"`
	} `json:"skills"`

	Projects []struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		URL         string   `json:"url"`
		Keywords    []string `json:"keywords"`
	} `json:"projects"`

	Certifications []struct {
		Name   string `json:"name"`
		Issuer string `json:"issuer"`
		Date   string `json:"date"`
	} `json:"certifications"`

	Interests []string `json:"interests"`
}

// Resume is the generic JSON Resume document.
type Resume struct {
	Basics       Basics        `json:"basics"`
	Work         []Work        `json:"work"`
	Education    []Education   `json:"education"`
	Skills       []Skill       `json:"skills"`
	Languages    []Language    `json:"languages"`
	Projects     []Project     `json:"projects"`
	Certificates []Certificate `json:"certificates"`
	Interests    []Interest    `json:"interests"`
}

// Basics holds the resume header.
type Basics struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Summary string `json:"summary"`
	Location struct {
		Address string `json:"address"`
	} `json:"location"`
}

// Work is one employment entry.
type Work struct {
	Name       string   `json:"name"`
	Position   string   `json:"position"`
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
}

// Education is one study entry.
type Education struct {
	Institution string `json:"institution"`
	StudyType   string `json:"studyType"`
	Area        string `json:"area"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

// Skill is one skill group entry.
type Skill struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// Language is one spoken-language entry.
type Language struct {
	Language string `json:"language"`
	Fluency  string `json:"fluency"`
}

// Project is one project entry.
type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Keywords    []string `json:"keywords"`
}

// Certificate is one certification entry.
type Certificate struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
}

// Interest is one interest entry.
type Interest struct {
	Name string `json:"name"`
}

// Convert maps a GeneratedCV into the JSON Resume shape. All slice fields
// of the result are non-nil.
func Convert(in GeneratedCV) Resume {
	out := Resume{
		Work:         []Work{},
		Education:    []Education{},
		Skills:       []Skill{},
		Languages:    []Language{},
		Projects:     []Project{},
		Certificates: []Certificate{},
		Interests:    []Interest{},
	}

	out.Basics.Name = in.PersonalInfo.FullName
	out.Basics.Label = in.PersonalInfo.Title
	out.Basics.Email = in.PersonalInfo.Email
	out.Basics.Phone = in.PersonalInfo.Phone
	out.Basics.Summary = in.PersonalInfo.Summary
	out.Basics.Location.Address = in.PersonalInfo.Address

	for _, e := range in.Experiences {
		out.Work = append(out.Work, Work{
			Name:       e.Company,
			Position:   e.Position,
			StartDate:  e.StartDate,
			EndDate:    e.EndDate,
			Summary:    e.Description,
			Highlights: orEmpty(e.Highlights),
		})
	}

	for _, e := range in.Education {
		out.Education = append(out.Education, Education{
			Institution: e.Institution,
			StudyType:   e.Degree,
			Area:        e.Field,
			StartDate:   e.StartDate,
			EndDate:     e.EndDate,
		})
	}

	if len(in.Skills.Technical) > 0 {
		out.Skills = append(out.Skills, Skill{Name: "Techniques", Keywords: in.Skills.Technical})
	}
	if len(in.Skills.Soft) > 0 {
		out.Skills = append(out.Skills, Skill{Name: "Transversales", Keywords: in.Skills.Soft})
	}
	for _, l := range in.Skills.Languages {
		out.Languages = append(out.Languages, Language{Language: l.Name, Fluency: l.Level})
	}

	for _, p := range in.Projects {
		out.Projects = append(out.Projects, Project{
			Name:        p.Name,
			Description: p.Description,
			URL:         p.URL,
			Keywords:    orEmpty(p.Keywords),
		})
	}

	for _, c := range in.Certifications {
		out.Certificates = append(out.Certificates, Certificate{
			Name:   c.Name,
			Issuer: c.Issuer,
			Date:   c.Date,
		})
	}

	for _, i := range in.Interests {
		out.Interests = append(out.Interests, Interest{Name: i})
	}

	return out
}

// orEmpty substitutes an empty slice for nil so JSON output is always an array.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
