// Command server runs the career-assistant HTTP API: conversations backed by
// an OpenAI-compatible provider, shareable personas, CV and quiz generation
// from PDF uploads, and public share links.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ldelacour/go-carriere-backend/internal/config"
	"github.com/ldelacour/go-carriere-backend/internal/domain"
	httpapi "github.com/ldelacour/go-carriere-backend/internal/http"
	"github.com/ldelacour/go-carriere-backend/internal/llm"
	"github.com/ldelacour/go-carriere-backend/internal/observability"
	"github.com/ldelacour/go-carriere-backend/internal/repo"
	"github.com/ldelacour/go-carriere-backend/internal/services"
	"github.com/ldelacour/go-carriere-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// @title           Carrière Backend API
// @version         1.0
// @description     Conversational career assistant: conversations, personas, CV and quiz generation, public sharing.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	if err := seed(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("database seeding failed")
	}

	gateway, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("provider client init failed")
	}
	if cfg.LLM.APIKey == "" {
		log.Warn().Msg("LLM_API_KEY not set; completions will be unavailable")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, gateway, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("server failed")
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// seed installs the built-in personas and the document-pipeline prompt
// templates. Roles are only seeded on an empty table so operators can retire
// a built-in without it reappearing; templates are upserted so prompt fixes
// ship with the binary.
func seed(ctx context.Context, db *gorm.DB) error {
	n, err := repo.CountSystemRoles(ctx, db)
	if err != nil {
		return err
	}
	if n == 0 {
		for i := range builtinRoles {
			if _, err := repo.CreateSystemRole(ctx, db, &builtinRoles[i]); err != nil {
				return err
			}
		}
		log.Info().Int("count", len(builtinRoles)).Msg("seeded system roles")
	}

	for name, content := range promptTemplates {
		if err := repo.UpsertPromptTemplate(ctx, db, name, content); err != nil {
			return err
		}
	}
	return nil
}

var builtinRoles = []domain.Role{
	{
		Name:         "Coach carrière",
		Description:  "Accompagne la réflexion sur le parcours professionnel et les choix de carrière.",
		Icon:         "compass",
		Category:     "carrière",
		SystemPrompt: "Tu es un coach carrière expérimenté. Tu aides l'utilisateur à clarifier son projet professionnel, identifier ses forces et structurer ses candidatures. Réponds en français, de façon concrète et bienveillante.",
	},
	{
		Name:         "Recruteur technique",
		Description:  "Simule un entretien d'embauche technique et donne un retour détaillé.",
		Icon:         "briefcase",
		Category:     "entretien",
		SystemPrompt: "Tu es un recruteur technique exigeant mais juste. Tu poses des questions d'entretien adaptées au poste visé, une à la fois, puis tu donnes un retour précis sur chaque réponse. Réponds en français.",
	},
	{
		Name:         "Conseiller en reconversion",
		Description:  "Aide à évaluer et préparer un changement de métier.",
		Icon:         "refresh",
		Category:     "carrière",
		SystemPrompt: "Tu es un conseiller en évolution professionnelle. Tu aides l'utilisateur à évaluer la faisabilité d'une reconversion, repérer les compétences transférables et bâtir un plan d'action réaliste. Réponds en français.",
	},
}

var promptTemplates = map[string]string{
	services.PromptCVGeneration: `Tu es un expert en rédaction de CV. À partir des éléments ci-dessous, rédige un CV adapté à l'offre et une lettre de motivation.

CV ACTUEL:
{{cv}}

OFFRE:
{{offre}}

POSTE VISÉ:
{{poste}}

CV DÉJÀ GÉNÉRÉ (à affiner, peut être vide):
{{existing}}

Réponds UNIQUEMENT avec un objet JSON de la forme:
{"cv": {"personal_info": {"full_name": "", "email": "", "phone": "", "address": "", "title": "", "summary": ""}, "experiences": [{"company": "", "position": "", "start_date": "", "end_date": "", "description": "", "highlights": [""]}], "education": [{"institution": "", "degree": "", "field": "", "start_date": "", "end_date": ""}], "skills": {"technical": [""], "soft": [""], "languages": [{"name": "", "level": ""}]}, "projects": [], "certifications": [], "interests": []}, "lettre": "texte de la lettre de motivation"}
N'invente aucune information absente des documents fournis.`,

	services.PromptQuizGeneration: `Tu es un recruteur qui prépare un entretien. À partir du CV et de l'offre ci-dessous, génère un quiz de préparation à l'entretien.

CV:
{{cv}}

OFFRE:
{{offre}}

POSTE VISÉ:
{{poste}}

Réponds UNIQUEMENT avec un objet JSON de la forme:
{"questions": [{"question": "", "type": "technique|comportementale", "elements_attendus": ""}]}
Génère entre 8 et 12 questions pertinentes pour ce poste.`,
}
