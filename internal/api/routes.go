package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/poibms/next-meal/internal/auth"
	"github.com/poibms/next-meal/internal/metrics"
)

type Router struct {
	Checkout *CheckoutHandler
	MealPlan *MealPlanHandler
	Profile  *ProfileHandler
	Webhook  *WebhookHandler
	Auth     AuthRoutes

	// Identify resolves the session user; Gate then applies the access rules.
	Identify       mux.MiddlewareFunc
	Gate           mux.MiddlewareFunc
	ProvideProfile mux.MiddlewareFunc

	Metrics       http.Handler
	Recorder      metrics.Recorder
	Health        http.HandlerFunc
	StaticDir     string
	AllowedOrigin string
}

type AuthRoutes interface {
	SignIn(w http.ResponseWriter, r *http.Request)
	Callback(w http.ResponseWriter, r *http.Request)
	SignOut(w http.ResponseWriter, r *http.Request)
}

func SetupRoutes(rt Router) *mux.Router {
	r := mux.NewRouter()

	r.Use(CORSMiddleware(rt.AllowedOrigin))
	r.Use(LoggingMiddleware(rt.Recorder))
	r.Use(RecoveryMiddleware)
	r.Use(rt.Identify)
	r.Use(rt.Gate)

	// preflight requests never reach a method-restricted route
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.HandleFunc("/healthz", rt.Health).Methods(http.MethodGet)
	if rt.Metrics != nil {
		r.Handle("/metrics", rt.Metrics).Methods(http.MethodGet)
	}

	if rt.Auth != nil {
		r.HandleFunc("/auth/sign-in", rt.Auth.SignIn).Methods(http.MethodGet)
		r.HandleFunc("/auth/callback", rt.Auth.Callback).Methods(http.MethodGet)
		r.HandleFunc("/auth/sign-out", rt.Auth.SignOut).Methods(http.MethodPost)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/webhook", rt.Webhook.HandleWebhook).Methods(http.MethodPost)
	api.HandleFunc("/check-subscription", rt.Checkout.CheckSubscription).Methods(http.MethodGet)
	api.HandleFunc("/checkout", rt.Checkout.CreateCheckout).Methods(http.MethodPost)
	api.HandleFunc("/plans", rt.Checkout.ListPlans).Methods(http.MethodGet)
	api.HandleFunc("/generate-mealplan", rt.MealPlan.Generate).Methods(http.MethodPost)
	api.Handle("/create-profile", rt.ProvideProfile(http.HandlerFunc(rt.Profile.CreateProfile))).Methods(http.MethodPost)

	profileAPI := api.PathPrefix("/profile").Subrouter()
	profileAPI.Use(auth.RequireAuth)
	profileAPI.HandleFunc("/change-plan", rt.Checkout.ChangePlan).Methods(http.MethodPost)
	profileAPI.HandleFunc("/subscription-status", rt.Checkout.SubscriptionStatus).Methods(http.MethodGet)
	profileAPI.HandleFunc("/unsubscribe", rt.Checkout.Unsubscribe).Methods(http.MethodPost)

	if rt.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(rt.StaticDir)))
	}

	return r
}
