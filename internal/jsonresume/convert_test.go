package jsonresume

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestConvert_EmptyInputYieldsArraysNotNulls(t *testing.T) {
	out := Convert(GeneratedCV{})

	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "null") {
		t.Fatalf("resume must serialize without nulls: %s", raw)
	}
	for name, n := range map[string]int{
		"work":         len(out.Work),
		"education":    len(out.Education),
		"skills":       len(out.Skills),
		"languages":    len(out.Languages),
		"projects":     len(out.Projects),
		"certificates": len(out.Certificates),
		"interests":    len(out.Interests),
	} {
		if n != 0 {
			t.Fatalf("%s should be empty, got %d", name, n)
		}
	}
}

const generatedCVFixture = `{
  "personal_info": {
    "full_name": "Ada Lovelace",
    "email": "ada@example.com",
    "phone": "+33 6 00 00 00 00",
    "address": "Paris",
    "title": "Ingénieure logiciel",
    "summary": "Dix ans d'expérience."
  },
  "experiences": [
    {
      "company": "Acme",
      "position": "Backend",
      "start_date": "2020-01",
      "end_date": "2023-06",
      "description": "Services Go"
    }
  ],
  "education": [
    {
      "institution": "Polytechnique",
      "degree": "Master",
      "field": "Informatique",
      "start_date": "2015",
      "end_date": "2017"
    }
  ],
  "skills": {
    "technical": ["Go", "SQL"],
    "soft": ["communication"],
    "languages": [{"name": "Anglais", "level": "C1"}]
  },
  "certifications": [{"name": "CKA", "issuer": "CNCF", "date": "2022"}],
  "interests": ["escalade"]
}`

func TestConvert_MapsAllSections(t *testing.T) {
	var in GeneratedCV
	if err := json.Unmarshal([]byte(generatedCVFixture), &in); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	out := Convert(in)

	if out.Basics.Name != "Ada Lovelace" || out.Basics.Label != "Ingénieure logiciel" {
		t.Fatalf("basics = %+v", out.Basics)
	}
	if out.Basics.Location.Address != "Paris" {
		t.Fatalf("address = %q", out.Basics.Location.Address)
	}

	if len(out.Work) != 1 || out.Work[0].Name != "Acme" || out.Work[0].Position != "Backend" {
		t.Fatalf("work = %+v", out.Work)
	}
	if out.Work[0].Summary != "Services Go" {
		t.Fatalf("work summary = %q", out.Work[0].Summary)
	}
	// Absent highlights still serialize as an array.
	if out.Work[0].Highlights == nil {
		t.Fatalf("highlights must be non-nil")
	}

	if len(out.Education) != 1 || out.Education[0].StudyType != "Master" || out.Education[0].Area != "Informatique" {
		t.Fatalf("education = %+v", out.Education)
	}

	if len(out.Skills) != 2 {
		t.Fatalf("expected technical + soft skill groups, got %+v", out.Skills)
	}
	if out.Skills[0].Name != "Techniques" || len(out.Skills[0].Keywords) != 2 {
		t.Fatalf("technical group = %+v", out.Skills[0])
	}
	if out.Skills[1].Name != "Transversales" {
		t.Fatalf("soft group = %+v", out.Skills[1])
	}

	if len(out.Languages) != 1 || out.Languages[0].Language != "Anglais" || out.Languages[0].Fluency != "C1" {
		t.Fatalf("languages = %+v", out.Languages)
	}
	if len(out.Certificates) != 1 || out.Certificates[0].Issuer != "CNCF" {
		t.Fatalf("certificates = %+v", out.Certificates)
	}
	if len(out.Interests) != 1 || out.Interests[0].Name != "escalade" {
		t.Fatalf("interests = %+v", out.Interests)
	}
}
