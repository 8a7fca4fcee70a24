package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/dfigueredo/PosAdmin/internal/auth"
	"github.com/dfigueredo/PosAdmin/internal/catalog"
	"github.com/dfigueredo/PosAdmin/internal/customer"
	database "github.com/dfigueredo/PosAdmin/internal/db"
	"github.com/dfigueredo/PosAdmin/internal/drawer"
	emailService "github.com/dfigueredo/PosAdmin/internal/email"
	"github.com/dfigueredo/PosAdmin/internal/exchange"
	"github.com/dfigueredo/PosAdmin/internal/license"
	"github.com/dfigueredo/PosAdmin/internal/pos/application"
	"github.com/dfigueredo/PosAdmin/internal/pos/infrastructure"
	"github.com/dfigueredo/PosAdmin/internal/pos/interfaces"
	"github.com/dfigueredo/PosAdmin/internal/user"
)

type Response struct {
	Message string `json:"message"`
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s in %v", r.URL.Path, time.Since(start))
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	})
}

func respondErrorWithDetails(w http.ResponseWriter, status int, message string, errs ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}
	if len(errs) > 0 && len(errs[0]) > 0 {
		payload["errors"] = errs[0]
	}
	respondJSON(w, status, payload)
}

type Server struct {
	router *http.ServeMux

	dbService      *database.DBService
	authService    auth.Service
	licenseService license.Service

	authHandler          *auth.Handler
	userHandler          *user.Handler
	catalogHandler       *catalog.Handler
	customerHandler      *customer.Handler
	exchangeHandler      *exchange.Handler
	drawerHandler        *drawer.Handler
	licenseHandler       *license.Handler
	checkoutHandler      *interfaces.CheckoutHandler
	saleHandler          *interfaces.SaleHandler
	paymentMethodHandler *interfaces.PaymentMethodHandler
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func checkConfiguration() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		return errors.New("no JWT_SECRET Provided")
	}
	return nil
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ready",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.dbService.Health())
}

// protected wraps a handler with the JWT access token middleware.
func (s *Server) protected(h http.HandlerFunc) http.Handler {
	return s.authService.JWTAccessTokenMiddleware()(h)
}

// adminOnly additionally requires the admin role.
func (s *Server) adminOnly(h http.HandlerFunc) http.Handler {
	return s.authService.JWTAccessTokenMiddleware()(s.authService.AdminOnlyMiddleware()(h))
}

// licensed gates store operations behind an activated license.
func (s *Server) licensed(h http.HandlerFunc) http.Handler {
	return s.authService.JWTAccessTokenMiddleware()(s.licenseService.Middleware()(h))
}

func (s *Server) licensedAdmin(h http.HandlerFunc) http.Handler {
	return s.authService.JWTAccessTokenMiddleware()(s.authService.AdminOnlyMiddleware()(s.licenseService.Middleware()(h)))
}

func (s *Server) RegisterRoutes() {
	// Public routes
	publicRoutes := http.NewServeMux()
	publicRoutes.Handle("POST /api/register", http.HandlerFunc(s.userHandler.HandleRegister))
	publicRoutes.Handle("POST /api/email/verify", http.HandlerFunc(s.userHandler.HandleVerifyEmail))
	publicRoutes.Handle("POST /api/auth/login", http.HandlerFunc(s.authHandler.HandleLogin))
	publicRoutes.Handle("POST /api/auth/logout", http.HandlerFunc(s.authHandler.HandleLogout))
	publicRoutes.Handle("POST /api/auth/2fa/verify", http.HandlerFunc(s.authHandler.HandleVerifyTwoFactor))
	publicRoutes.Handle("POST /api/password-reset/request", http.HandlerFunc(s.authHandler.RequestPasswordResetHandler))
	publicRoutes.Handle("POST /api/password-reset/confirm", http.HandlerFunc(s.authHandler.ResetPasswordHandler))
	publicRoutes.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))
	publicRoutes.Handle("GET /api/health", http.HandlerFunc(s.handleHealth))

	// Protected routes (using JWT Access Token Middleware)
	protectedRoutes := http.NewServeMux()

	// account
	protectedRoutes.Handle("GET /api/protected/profile", s.protected(s.userHandler.HandleGetUserProfile))
	protectedRoutes.Handle("POST /api/protected/change-password", s.protected(s.userHandler.HandleChangePassword))
	protectedRoutes.Handle("POST /api/protected/2fa/register", s.protected(s.authHandler.HandleRegisterTwoFactor))
	protectedRoutes.Handle("POST /api/protected/2fa/verify-registration", s.protected(s.authHandler.HandleVerifyTwoFactorCode))
	protectedRoutes.Handle("POST /api/protected/2fa/request-email-code", s.protected(s.authHandler.HandleRequestEmail2FACode))
	protectedRoutes.Handle("DELETE /api/protected/2fa/disable", s.protected(s.authHandler.HandleDisableTwoFactor))

	// USERS API (admin)
	protectedRoutes.Handle("POST /api/protected/users", s.adminOnly(s.userHandler.HandleCreateCashier))
	protectedRoutes.Handle("GET /api/protected/users", s.adminOnly(s.userHandler.HandleListUsers))
	protectedRoutes.Handle("PUT /api/protected/users/{userID}/active", s.adminOnly(s.userHandler.HandleSetActive))

	// LICENSE API
	protectedRoutes.Handle("POST /api/protected/license/issue", s.adminOnly(s.licenseHandler.HandleIssueLicense))
	protectedRoutes.Handle("POST /api/protected/license/activate", s.adminOnly(s.licenseHandler.HandleActivateLicense))
	protectedRoutes.Handle("POST /api/protected/license/renew", s.adminOnly(s.licenseHandler.HandleRenewLicense))
	protectedRoutes.Handle("GET /api/protected/license/status", s.protected(s.licenseHandler.HandleLicenseStatus))

	// PRODUCTS API
	protectedRoutes.Handle("POST /api/protected/products", s.licensedAdmin(s.catalogHandler.HandleCreateProduct))
	protectedRoutes.Handle("PUT /api/protected/products/{productID}", s.licensedAdmin(s.catalogHandler.HandleUpdateProduct))
	protectedRoutes.Handle("DELETE /api/protected/products/{productID}", s.licensedAdmin(s.catalogHandler.HandleDeactivateProduct))
	protectedRoutes.Handle("POST /api/protected/products/{productID}/stock", s.licensedAdmin(s.catalogHandler.HandleAdjustStock))
	protectedRoutes.Handle("GET /api/protected/products", s.licensed(s.catalogHandler.HandleListProducts))
	protectedRoutes.Handle("GET /api/protected/products/{productID}", s.licensed(s.catalogHandler.HandleGetProduct))

	// CUSTOMERS API
	protectedRoutes.Handle("POST /api/protected/customers", s.licensed(s.customerHandler.HandleCreateCustomer))
	protectedRoutes.Handle("PUT /api/protected/customers/{customerID}", s.licensed(s.customerHandler.HandleUpdateCustomer))
	protectedRoutes.Handle("DELETE /api/protected/customers/{customerID}", s.licensedAdmin(s.customerHandler.HandleDeleteCustomer))
	protectedRoutes.Handle("GET /api/protected/customers", s.licensed(s.customerHandler.HandleListCustomers))
	protectedRoutes.Handle("GET /api/protected/customers/{customerID}", s.licensed(s.customerHandler.HandleGetCustomer))

	// EXCHANGE RATE API
	protectedRoutes.Handle("GET /api/protected/exchange-rate", s.protected(s.exchangeHandler.HandleGetCurrentRate))
	protectedRoutes.Handle("PUT /api/protected/exchange-rate", s.adminOnly(s.exchangeHandler.HandleSetManualRate))
	protectedRoutes.Handle("GET /api/protected/exchange-rate/history", s.protected(s.exchangeHandler.HandleGetRateHistory))

	// PAYMENT METHODS API
	protectedRoutes.Handle("POST /api/protected/payment-methods", s.licensedAdmin(s.paymentMethodHandler.CreateMethod))
	protectedRoutes.Handle("PUT /api/protected/payment-methods/{methodID}", s.licensedAdmin(s.paymentMethodHandler.UpdateMethod))
	protectedRoutes.Handle("DELETE /api/protected/payment-methods/{methodID}", s.licensedAdmin(s.paymentMethodHandler.DeleteMethod))
	protectedRoutes.Handle("GET /api/protected/payment-methods", s.licensed(s.paymentMethodHandler.GetMethods))
	protectedRoutes.Handle("GET /api/protected/payment-methods/{methodID}", s.licensed(s.paymentMethodHandler.GetMethod))

	// CASH DRAWER API
	protectedRoutes.Handle("POST /api/protected/drawer/open", s.licensed(s.drawerHandler.HandleOpenSession))
	protectedRoutes.Handle("POST /api/protected/drawer/close", s.licensed(s.drawerHandler.HandleCloseSession))
	protectedRoutes.Handle("GET /api/protected/drawer/current", s.licensed(s.drawerHandler.HandleGetOpenSession))
	protectedRoutes.Handle("GET /api/protected/drawer/sessions", s.licensed(s.drawerHandler.HandleListSessions))
	protectedRoutes.Handle("GET /api/protected/drawer/sessions/{sessionID}/movements", s.licensed(s.drawerHandler.HandleGetMovements))
	protectedRoutes.Handle("POST /api/protected/drawer/movements", s.licensed(s.drawerHandler.HandleManualMovement))

	// CHECKOUT API
	protectedRoutes.Handle("POST /api/protected/checkout/sessions", s.licensed(s.checkoutHandler.StartSession))
	protectedRoutes.Handle("GET /api/protected/checkout/sessions/{sessionID}", s.licensed(s.checkoutHandler.GetSession))
	protectedRoutes.Handle("POST /api/protected/checkout/sessions/{sessionID}/products", s.licensed(s.checkoutHandler.AddProduct))
	protectedRoutes.Handle("PUT /api/protected/checkout/sessions/{sessionID}/products/{productID}", s.licensed(s.checkoutHandler.SetLineQuantity))
	protectedRoutes.Handle("PUT /api/protected/checkout/sessions/{sessionID}/customer", s.licensed(s.checkoutHandler.SelectCustomer))
	protectedRoutes.Handle("POST /api/protected/checkout/sessions/{sessionID}/payments", s.licensed(s.checkoutHandler.AddPayment))
	protectedRoutes.Handle("DELETE /api/protected/checkout/sessions/{sessionID}/payments/{index}", s.licensed(s.checkoutHandler.RemovePayment))
	protectedRoutes.Handle("POST /api/protected/checkout/sessions/{sessionID}/change", s.licensed(s.checkoutHandler.AddChangePayment))
	protectedRoutes.Handle("DELETE /api/protected/checkout/sessions/{sessionID}/change/{index}", s.licensed(s.checkoutHandler.RemoveChangePayment))
	protectedRoutes.Handle("POST /api/protected/checkout/sessions/{sessionID}/advance", s.licensed(s.checkoutHandler.Advance))
	protectedRoutes.Handle("POST /api/protected/checkout/sessions/{sessionID}/back", s.licensed(s.checkoutHandler.Back))
	protectedRoutes.Handle("POST /api/protected/checkout/sessions/{sessionID}/complete", s.licensed(s.checkoutHandler.Complete))
	protectedRoutes.Handle("DELETE /api/protected/checkout/sessions/{sessionID}", s.licensed(s.checkoutHandler.Cancel))

	// SALES API
	protectedRoutes.Handle("GET /api/protected/sales", s.licensed(s.saleHandler.GetSales))
	protectedRoutes.Handle("GET /api/protected/sales/summary/daily", s.licensed(s.saleHandler.GetDailySummary))
	protectedRoutes.Handle("GET /api/protected/sales/{saleID}", s.licensed(s.saleHandler.GetSale))

	// Refresh token routes
	refreshTokenRoutes := http.NewServeMux()
	refreshTokenRoutes.Handle("PUT /api/refresh/token", s.authService.JWTRefreshTokenMiddleware()(http.HandlerFunc(s.authHandler.RefreshAccessToken)))

	// Main router
	mainRouter := http.NewServeMux()

	mainRouter.Handle("/api/", publicRoutes)
	mainRouter.Handle("/api/protected/", protectedRoutes)
	mainRouter.Handle("/api/refresh/", refreshTokenRoutes)
	mainRouter.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = mainRouter
}

func main() {
	if err := checkConfiguration(); err != nil {
		log.Fatalf("Missing configuration, update to start server")
	}

	dbService, err := database.NewDBService()
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer dbService.Close()

	authRepo := auth.NewUserRepository(dbService.DB)
	userRepo := user.NewUserRepository(dbService.DB)

	sessionManager := auth.NewSessionManager()
	sessionManager.StartSessionTokenCleanup(time.Minute)
	jwtManager := auth.NewJWTManager()
	newEmailService := emailService.NewEmailService()
	authenticator := auth.Authenticator{}

	userService := user.NewUserService(userRepo, newEmailService)
	userHandler := user.NewHandler(userService)
	authService := auth.NewAuthService(authRepo, userService, sessionManager, jwtManager, newEmailService, authenticator)
	authHandler := auth.NewHandler(authService)

	licenseRepo := license.NewLicenseRepository(dbService.DB)
	licenseService := license.NewService(licenseRepo, respondError)
	licenseHandler := license.NewHandler(licenseService, respondJSON, respondError)

	catalogRepo := catalog.NewProductRepository(dbService.DB)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogService, respondJSON, respondError)

	customerRepo := customer.NewCustomerRepository(dbService.DB)
	customerService := customer.NewService(customerRepo)
	customerHandler := customer.NewHandler(customerService, respondJSON, respondError)

	rateRepo := exchange.NewRateRepository(dbService.DB)
	bcvClient := exchange.NewBCVClient(os.Getenv("BCV_API_URL"))
	exchangeService := exchange.NewService(rateRepo, bcvClient)
	exchangeHandler := exchange.NewHandler(exchangeService, respondJSON, respondError)
	exchangeService.Subscribe(func(rate exchange.Rate) {
		log.Printf("Exchange rate updated to %.2f Bs/USD (%s)", rate.Value, rate.Source)
	})

	methodRepo := infrastructure.NewPaymentMethodRepository(dbService.DB)
	methodService := application.NewPaymentMethodService(methodRepo)
	methodHandler := interfaces.NewPaymentMethodHandler(methodService, respondJSON, respondErrorWithDetails)

	drawerRepo := drawer.NewDrawerRepository(dbService.DB)
	drawerService := drawer.NewService(drawerRepo, methodService)
	drawerHandler := drawer.NewHandler(drawerService, respondJSON, respondError)

	saleRepo := infrastructure.NewSaleRepository(dbService.DB)
	saleService := application.NewSaleService(saleRepo)
	saleHandler := interfaces.NewSaleHandler(saleService, respondJSON, respondErrorWithDetails)

	checkoutService := application.NewCheckoutService(catalogService, customerService, methodService, exchangeService, saleRepo, drawerService)
	checkoutHandler := interfaces.NewCheckoutHandler(checkoutService, respondJSON, respondErrorWithDetails)

	server := &Server{
		dbService:            dbService,
		authService:          authService,
		licenseService:       licenseService,
		authHandler:          authHandler,
		userHandler:          userHandler,
		catalogHandler:       catalogHandler,
		customerHandler:      customerHandler,
		exchangeHandler:      exchangeHandler,
		drawerHandler:        drawerHandler,
		licenseHandler:       licenseHandler,
		checkoutHandler:      checkoutHandler,
		saleHandler:          saleHandler,
		paymentMethodHandler: methodHandler,
	}
	server.RegisterRoutes()

	if err := exchangeService.RefreshFromBCV(); err != nil {
		log.Printf("Could not fetch BCV rate at startup, last registered rate stays active: %v", err)
	}

	if err := StartSchedulers(exchangeService, checkoutService, saleService, licenseService, userService, newEmailService); err != nil {
		log.Fatalf("Scheduler didn't start, stoping the app ...")
	}

	loggingMiddleware := loggingMiddleware(http.HandlerFunc(server.router.ServeHTTP))
	log.Println("Starting perf on port 6060...")
	go func() {
		log.Println(http.ListenAndServe("localhost:6060", nil))
	}()
	log.Println("Server starting on port 8080...")
	if err := http.ListenAndServe(":8080", loggingMiddleware); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

const staleSessionAge = 12 * time.Hour

func StartSchedulers(
	exchangeService exchange.Service,
	checkoutService *application.CheckoutService,
	saleService *application.SaleService,
	licenseService license.Service,
	userService user.Service,
	emailSender emailService.EmailSender,
) error {
	c := cron.New()

	// The BCV publishes a new official rate once per business day.
	_, err := c.AddFunc("@every 6h", func() {
		if err := exchangeService.RefreshFromBCV(); err != nil {
			log.Printf("Error refreshing BCV rate: %v", err)
		}
	})
	if err != nil {
		return err
	}

	_, err = c.AddFunc("@every 1h", func() {
		if removed := checkoutService.CleanupStale(staleSessionAge); removed > 0 {
			log.Printf("Discarded %d abandoned checkout sessions", removed)
		}
	})
	if err != nil {
		return err
	}

	// End-of-day report for store admins.
	_, err = c.AddFunc("0 21 * * *", func() {
		if err := sendDailyReport(saleService, userService, emailSender); err != nil {
			log.Printf("Error sending daily sales report: %v", err)
		}
	})
	if err != nil {
		return err
	}

	_, err = c.AddFunc("0 9 * * *", func() {
		if err := warnExpiringLicense(licenseService, userService, emailSender); err != nil {
			log.Printf("Error checking license expiry: %v", err)
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	return nil
}

const licenseExpiryWarning = 7 * 24 * time.Hour

func warnExpiringLicense(licenseService license.Service, userService user.Service, emailSender emailService.EmailSender) error {
	lic, err := licenseService.Status()
	if err != nil {
		if errors.Is(err, license.ErrNoLicense) || errors.Is(err, license.ErrLicenseExpired) {
			return nil
		}
		return err
	}
	if time.Until(lic.ExpiresAt) > licenseExpiryWarning {
		return nil
	}

	users, err := userService.ListUsers()
	if err != nil {
		return err
	}
	for _, u := range users {
		if !u.IsAdmin() || !u.IsActive {
			continue
		}
		emailSender.QueueEmail(u.Email, emailService.LicenseExpiringData{
			UserName:  u.Login,
			Plan:      string(lic.Plan),
			ExpiresAt: lic.ExpiresAt.Format("2006-01-02"),
		})
	}
	return nil
}

func sendDailyReport(saleService *application.SaleService, userService user.Service, emailSender emailService.EmailSender) error {
	summary, err := saleService.DailySummary(time.Now())
	if err != nil {
		return err
	}
	if summary.SaleCount == 0 {
		return nil
	}

	users, err := userService.ListUsers()
	if err != nil {
		return err
	}
	for _, u := range users {
		if !u.IsAdmin() || !u.IsActive {
			continue
		}
		emailSender.QueueEmail(u.Email, emailService.DailySalesReportData{
			UserName:    u.Login,
			Date:        summary.Date,
			SaleCount:   summary.SaleCount,
			Subtotal:    summary.Subtotal.String(),
			TotalPaid:   summary.TotalPaid.String(),
			ChangeGiven: summary.ChangeGiven.String(),
		})
	}
	return nil
}
