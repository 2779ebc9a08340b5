// Document pipeline HTTP handlers.
//
// This file exposes the CV and quiz generation endpoints:
//   - POST /cv     (multipart: cv PDF, offre text/PDF, poste, existing)
//   - POST /quiz   (multipart: cv PDF, offre text/PDF, poste)
//   - GET  /quiz   (list the caller's stored quizzes)
//
// Uploads are read fully into memory with a configurable size cap; only the
// extracted text travels further, never the binary.
package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
	"github.com/ldelacour/go-carriere-backend/internal/services"
)

// ListQuizzesResponse wraps the caller's stored quizzes.
type ListQuizzesResponse struct {
	Quizzes []domain.Quiz `json:"quizzes"`
}

// readUpload reads an optional multipart file into memory, enforcing the
// configured size cap. A missing field yields (nil, "", nil).
func (h *Handlers) readUpload(c *gin.Context, field string) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, "", nil
		}
		return nil, "", err
	}
	if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
		return nil, "", errUploadTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer func(f multipart.File) { _ = f.Close() }(f)

	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > limit {
		return nil, "", errUploadTooLarge
	}
	return data, fh.Filename, nil
}

// errUploadTooLarge signals a multipart file over the configured cap.
var errUploadTooLarge = &uploadTooLargeError{}

type uploadTooLargeError struct{}

func (*uploadTooLargeError) Error() string { return "upload exceeds size limit" }

// failDocument maps document pipeline errors to HTTP responses.
func failDocument(c *gin.Context, err error) {
	switch err {
	case services.ErrFeatureUnavailable:
		fail(c, http.StatusServiceUnavailable, ErrCodeFeatureUnavailable, "generation template is not provisioned")
	case services.ErrBadDocument:
		fail(c, http.StatusBadRequest, ErrCodeBadDocument, "document contains no extractable text")
	case services.ErrBadGeneration:
		fail(c, http.StatusInternalServerError, ErrCodeGenerationFailed, "provider returned an unusable payload")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeGenerationFailed, err.Error())
	}
}

// GenerateCV godoc
// @ID          generateCV
// @Summary     Generate a tailored CV and cover letter
// @Description Extracts text from the uploaded CV PDF, combines it with the job
// @Description offer and target position, and returns a structured résumé
// @Description (JSON Resume) plus a cover letter.
// @Tags        Documents
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       cv        formData  file    false "Current CV (PDF)"
// @Param       offre     formData  string  false "Job offer text"
// @Param       offre_pdf formData  file    false "Job offer (PDF)"
// @Param       poste     formData  string  false "Target position"  example(Ingénieur DevOps)
// @Param       existing  formData  string  false "Previously generated CV to refine"
//
// @Success     200  {object}  services.CVResult
// @Failure     400  {object}  handlers.ErrorResponse "Bad document"
// @Failure     500  {object}  handlers.ErrorResponse "Generation failed"
// @Failure     503  {object}  handlers.ErrorResponse "Feature unavailable"
// @Router      /cv [post]
func (h *Handlers) GenerateCV(c *gin.Context) {
	cvPDF, _, err := h.readUpload(c, "cv")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	offrePDF, _, err := h.readUpload(c, "offre_pdf")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	req := services.CVRequest{
		CVPDF:     cvPDF,
		OffreText: strings.TrimSpace(c.PostForm("offre")),
		OffrePDF:  offrePDF,
		Poste:     strings.TrimSpace(c.PostForm("poste")),
		Existing:  strings.TrimSpace(c.PostForm("existing")),
	}
	if len(req.CVPDF) == 0 && req.Existing == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cv file or existing cv required")
		return
	}

	res, err := h.docSvc.GenerateCV(c.Request.Context(), userID(c), req)
	if err != nil {
		failDocument(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// GenerateQuiz godoc
// @ID          generateQuiz
// @Summary     Generate an interview quiz
// @Description Produces interview-preparation questions from a CV and a job
// @Description offer, and stores the result for later retrieval.
// @Tags        Documents
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       cv        formData  file    false "Candidate CV (PDF)"
// @Param       offre     formData  string  false "Job offer text"
// @Param       offre_pdf formData  file    false "Job offer (PDF)"
// @Param       poste     formData  string  false "Target position"  example(Ingénieur DevOps)
//
// @Success     201  {object}  domain.Quiz
// @Failure     400  {object}  handlers.ErrorResponse "Bad document"
// @Failure     500  {object}  handlers.ErrorResponse "Generation failed"
// @Failure     503  {object}  handlers.ErrorResponse "Feature unavailable"
// @Router      /quiz [post]
func (h *Handlers) GenerateQuiz(c *gin.Context) {
	cvPDF, _, err := h.readUpload(c, "cv")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	offrePDF, _, err := h.readUpload(c, "offre_pdf")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	req := services.QuizRequest{
		CVPDF:     cvPDF,
		OffreText: strings.TrimSpace(c.PostForm("offre")),
		OffrePDF:  offrePDF,
		Poste:     strings.TrimSpace(c.PostForm("poste")),
	}
	if len(req.CVPDF) == 0 && req.OffreText == "" && len(req.OffrePDF) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cv file or offre required")
		return
	}

	quiz, err := h.docSvc.GenerateQuiz(c.Request.Context(), userID(c), req)
	if err != nil {
		failDocument(c, err)
		return
	}
	ok(c, http.StatusCreated, quiz)
}

// ListQuizzes godoc
// @ID          listQuizzes
// @Summary     List stored quizzes
// @Description Returns the quizzes generated by the current user, most recent first.
// @Tags        Documents
// @Produce     json
//
// @Success     200  {object}  handlers.ListQuizzesResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /quiz [get]
func (h *Handlers) ListQuizzes(c *gin.Context) {
	quizzes, err := h.docSvc.ListQuizzes(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListQuizzesResponse{Quizzes: quizzes})
}
