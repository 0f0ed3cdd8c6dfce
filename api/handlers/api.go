package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/malkhana-api/api"
	"github.com/linesmerrill/malkhana-api/config"
	"github.com/linesmerrill/malkhana-api/databases"
	"github.com/linesmerrill/malkhana-api/qr"
	"github.com/linesmerrill/malkhana-api/services"
	"github.com/linesmerrill/malkhana-api/session"
	"github.com/linesmerrill/malkhana-api/storage"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router *mux.Router
	Config config.Config

	// Users, Cases and Photos default to the Mongo and Cloudinary backed
	// implementations when left nil.
	Users  databases.UserDatabase
	Cases  databases.CaseDatabase
	Photos storage.PhotoStore
	Hub    *Hub

	dbHelper databases.DatabaseHelper
	client   databases.ClientHelper
}

func (a *App) sessions() *session.Manager {
	m, err := session.NewManager(a.Config.SessionSecret, a.Config.SessionCookieSecure)
	if err != nil {
		// sessions will not survive a restart without a configured secret
		zap.S().Warnw("SESSION_SECRET is not set, using a random secret", "error", err)
		m, _ = session.NewManager(uuid.New().String(), a.Config.SessionCookieSecure)
	}
	return m
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.Users == nil {
		a.Users = databases.NewUserDatabase(a.dbHelper)
	}
	if a.Cases == nil {
		a.Cases = databases.NewCaseDatabase(a.dbHelper)
	}
	if a.Hub == nil {
		a.Hub = NewHub()
	}

	identity := services.Identity{Users: a.Users}
	sessions := a.sessions()
	m := api.SessionMiddleware{Sessions: sessions, Identity: identity}
	limiter := api.NewIPRateLimiter(a.Config.LoginRatePerMinute)
	limiter.TrustProxy = a.Config.TrustProxy

	auth := Auth{Identity: identity, Sessions: sessions, Basic: api.NewBasicAuth(context.Background(), identity)}
	u := User{Service: &services.UserService{Users: a.Users}}
	c := Case{Service: &services.CaseService{
		Cases:   a.Cases,
		Users:   a.Users,
		QR:      qr.NewPNGRenderer(),
		Events:  a.Hub,
		BaseURL: a.Config.BaseURL,
	}}
	cloudinaryHandler := CloudinaryHandler{
		Photos: a.Photos,
		Signer: storage.Signer{APISecret: a.Config.CloudinaryAPISecret, UploadPreset: a.Config.CloudinaryUploadPreset},
	}

	r := api.New()
	r.Use(api.SecurityHeaders, api.MetricsMiddleware, api.TimeoutMiddleware(api.QueryTimeout*2))

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/login", limiter.Middleware(http.HandlerFunc(auth.LoginHandler))).Methods("POST")
	apiCreate.Handle("/auth/token", limiter.Middleware(http.HandlerFunc(auth.TokenHandler))).Methods("POST")
	apiCreate.Handle("/auth/logout", http.HandlerFunc(auth.LogoutHandler)).Methods("POST")
	apiCreate.Handle("/auth/session", m.Middleware(http.HandlerFunc(auth.SessionHandler))).Methods("GET")

	apiCreate.Handle("/users", m.Optional(http.HandlerFunc(u.UserCreateHandler))).Methods("POST")
	apiCreate.Handle("/users", m.Middleware(http.HandlerFunc(u.UsersHandler))).Methods("GET")
	apiCreate.Handle("/users/{id}", m.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")
	apiCreate.Handle("/users/{id}", m.Middleware(http.HandlerFunc(u.UpdateUserHandler))).Methods("PUT")
	apiCreate.Handle("/users/{id}", m.Middleware(http.HandlerFunc(u.DeleteUserHandler))).Methods("DELETE")

	apiCreate.Handle("/cases", m.Middleware(http.HandlerFunc(c.CasesHandler))).Methods("GET")
	apiCreate.Handle("/cases", m.Middleware(http.HandlerFunc(c.CreateCaseHandler))).Methods("POST")
	apiCreate.Handle("/cases/{id}", m.Middleware(http.HandlerFunc(c.CaseHandler))).Methods("GET")
	apiCreate.Handle("/cases/{id}", m.Middleware(http.HandlerFunc(c.UpdateCaseHandler))).Methods("PUT")
	apiCreate.Handle("/cases/{id}", m.Middleware(http.HandlerFunc(c.DeleteCaseHandler))).Methods("DELETE")
	apiCreate.Handle("/cases/{id}/properties", m.Middleware(http.HandlerFunc(c.AddPropertyHandler))).Methods("POST")
	apiCreate.Handle("/cases/{id}/properties/{propertyId}", m.Middleware(http.HandlerFunc(c.UpdatePropertyHandler))).Methods("PUT")
	apiCreate.Handle("/cases/{id}/properties/{propertyId}", m.Middleware(http.HandlerFunc(c.DeletePropertyHandler))).Methods("DELETE")
	apiCreate.Handle("/cases/{id}/custody", m.Middleware(http.HandlerFunc(c.CustodyLogsHandler))).Methods("GET")
	apiCreate.Handle("/cases/{id}/custody", m.Middleware(http.HandlerFunc(c.AppendCustodyLogHandler))).Methods("POST")
	apiCreate.Handle("/cases/{id}/disposal", m.Middleware(http.HandlerFunc(c.DisposeHandler))).Methods("POST")
	apiCreate.Handle("/cases/{id}/disposal", m.Middleware(http.HandlerFunc(c.AmendDisposalHandler))).Methods("PUT")
	apiCreate.Handle("/properties/qrcode/{propertyId}", m.Middleware(http.HandlerFunc(c.PropertyQRCodeHandler))).Methods("GET")
	apiCreate.Handle("/dashboard/stats", m.Middleware(http.HandlerFunc(c.StatsHandler))).Methods("GET")

	apiCreate.Handle("/uploads/photo", m.Middleware(http.HandlerFunc(cloudinaryHandler.UploadPhotoHandler))).Methods("POST")
	apiCreate.Handle("/uploads/signature", m.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	apiCreate.Handle("/ws/cases", m.Middleware(http.HandlerFunc(a.Hub.CaseEventsHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	ctx, cancel := api.WithQueryTimeout(context.Background())
	defer cancel()

	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	if err := client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	if err := client.Ping(ctx); err != nil {
		zap.S().With(err).Error("failed to ping database")
		return err
	}
	zap.S().Info("malkhana-api has connected to the database")

	a.Users = databases.NewUserDatabase(a.dbHelper)
	a.Cases = databases.NewCaseDatabase(a.dbHelper)
	if err := a.Users.EnsureIndexes(ctx); err != nil {
		zap.S().With(err).Error("failed to create user indexes")
		return err
	}
	if err := a.Cases.EnsureIndexes(ctx); err != nil {
		zap.S().With(err).Error("failed to create case indexes")
		return err
	}

	if a.Config.CloudinaryURL != "" {
		photos, err := storage.NewCloudinary(a.Config.CloudinaryURL)
		if err != nil {
			zap.S().With(err).Error("failed to configure cloudinary")
			return err
		}
		a.Photos = photos
	} else {
		zap.S().Warn("CLOUDINARY_URL is not set, photo uploads are disabled")
	}

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Close disconnects from the database
func (a *App) Close(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}
