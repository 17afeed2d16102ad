package router

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "vet-clinic-api/docs"
	"vet-clinic-api/internal/adapters/notifications/logpub"
	mem "vet-clinic-api/internal/adapters/storage/memory"
	pg "vet-clinic-api/internal/adapters/storage/postgres"
	"vet-clinic-api/internal/domain/medicalrecords"
	"vet-clinic-api/internal/domain/pets"
	"vet-clinic-api/internal/domain/tutors"
	"vet-clinic-api/internal/domain/users"
	"vet-clinic-api/internal/middleware"
	"vet-clinic-api/internal/platform/logger"
	"vet-clinic-api/internal/platform/respond"
	"vet-clinic-api/internal/ports/auth"
	"vet-clinic-api/internal/ports/files"
	"vet-clinic-api/internal/ports/notifications"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev, header X-Debug-User-ID)

	// Opcional: si viene, usa Postgres. Si no, in-memory con Memory.
	DB     *sql.DB
	Memory mem.Options

	Files  files.Storage           // nil => los adjuntos fallan
	Events notifications.Publisher // nil => logpub
	Logger logger.Logger           // nil => Nop

	CORSAllowedOrigins []string                 // vacío => "*"
	RateLimiter        *middleware.IPRateLimiter // nil => sin límite

	// TrustProxy habilita X-Forwarded-For/X-Real-IP como IP del cliente.
	// Sólo detrás de un proxy propio: el header lo puede mandar cualquiera.
	TrustProxy bool
}

// Services son los servicios de dominio ya cableados a su storage.
type Services struct {
	Users   *users.Service
	Tutors  *tutors.Service
	Pets    *pets.Service
	Records *medicalrecords.Service
}

// NewServices elige storage (Postgres si opts.DB, si no memoria) y arma los servicios.
func NewServices(opts Options) Services {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	events := opts.Events
	if events == nil {
		events = logpub.New(log)
	}

	var (
		userRepo   users.Repository
		tutorRepo  tutors.Repository
		petRepo    pets.Repository
		recordRepo medicalrecords.Repository
	)

	if opts.DB != nil {
		userRepo = pg.NewUsersRepo(opts.DB)
		tutorRepo = pg.NewTutorsRepo(opts.DB)
		petRepo = pg.NewPetsRepo(opts.DB)
		recordRepo = pg.NewMedicalRecordsRepo(opts.DB)
	} else {
		u := mem.NewUserRepo(opts.Memory)
		t := mem.NewTutorRepo(opts.Memory)
		p := mem.NewPetRepo(t, opts.Memory)
		userRepo, tutorRepo, petRepo = u, t, p
		recordRepo = mem.NewMedicalRecordRepo(p, u, opts.Memory)
	}

	usersSvc := users.NewService(userRepo, events, log)
	tutorsSvc := tutors.NewService(tutorRepo, events, log)
	petsSvc := pets.NewService(petRepo, tutorsSvc)
	recordsSvc := medicalrecords.NewService(medicalrecords.Deps{
		Repo:   recordRepo,
		Pets:   petsSvc,
		Staff:  usersSvc,
		Files:  opts.Files,
		Events: events,
		Log:    log,
	})

	return Services{Users: usersSvc, Tutors: tutorsSvc, Pets: petsSvc, Records: recordsSvc}
}

func NewRouter(opts Options) http.Handler {
	return Mount(NewServices(opts), opts)
}

// Mount arma el router HTTP sobre servicios ya construidos.
func Mount(svc Services, opts Options) http.Handler {
	r := chi.NewRouter()

	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(chimw.RequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLog(opts.Logger))
	r.Use(middleware.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.DebugUserHeader, medicalrecords.VeterinarianHeader},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Handler)
	}

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Rutas por módulo
	users.RegisterRoutes(r, svc.Users)
	tutors.RegisterRoutes(r, svc.Tutors)
	pets.RegisterRoutes(r, svc.Pets)
	medicalrecords.RegisterRoutes(r, svc.Records)

	return r
}
