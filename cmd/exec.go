package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"zatix-checkout/config"
	"zatix-checkout/internal/api"
	"zatix-checkout/internal/cache"
	"zatix-checkout/internal/checkout"
	"zatix-checkout/internal/export"
	"zatix-checkout/internal/notify"
	"zatix-checkout/models"
	"zatix-checkout/pkg/logger"
)

type options struct {
	eventID int
	userID  int
	buySpec string
	method  string

	email    string
	password string
	token    string

	cardNumber string
	cardExpiry string
	cardCVV    string
	bankCode   string

	outDir string
}

// Start runs the purchase flow end to end: select, validate, choose a
// method, create the order, wait for payment, export tickets.
func Start() error {
	var opts options
	flag.IntVar(&opts.eventID, "event", 0, "event id")
	flag.IntVar(&opts.userID, "user", 0, "user id")
	flag.StringVar(&opts.buySpec, "buy", "", "selections, e.g. 12=2,15=1 (ticketID=qty)")
	flag.StringVar(&opts.method, "method", "", "payment method code, e.g. bca_va")
	flag.StringVar(&opts.email, "email", "", "account email")
	flag.StringVar(&opts.password, "password", "", "account password")
	flag.StringVar(&opts.token, "token", "", "pre-issued access token (skips login)")
	flag.StringVar(&opts.cardNumber, "card-number", "", "card number (credit_card methods)")
	flag.StringVar(&opts.cardExpiry, "card-expiry", "", "card expiry MM/YY")
	flag.StringVar(&opts.cardCVV, "card-cvv", "", "card cvv")
	flag.StringVar(&opts.bankCode, "bank", "", "bank code (bank_transfer methods)")
	flag.StringVar(&opts.outDir, "out", ".", "directory for exported tickets")
	flag.Parse()

	cfg := config.LoadConfig()
	log := logger.New(cfg.LogLevel, cfg.LogEncoding)
	defer func() { _ = log.Sync() }()

	if opts.eventID == 0 || opts.userID == 0 || opts.buySpec == "" || opts.method == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -event, -user, -buy, -method")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleShutdown(cancel, log)

	client := api.NewClient(&api.ClientConfig{
		BaseURL:         cfg.APIBaseURL,
		Timeout:         cfg.APITimeout,
		RefreshInterval: cfg.TokenRefreshInterval,
		ExpiryWarning:   cfg.TokenExpiryWarning,
		Logger:          log,
	})

	unsubscribe := client.OnSessionEvent(func(event api.SessionEvent) {
		switch event {
		case api.SessionExpiryWarning:
			log.Warn("session expires soon")
		case api.SessionTokenExpired, api.SessionAuthFailed:
			log.Error("session invalid, log in again", "event", event.String())
			cancel()
		}
	})
	defer unsubscribe()

	if opts.token != "" {
		client.SetAccessToken(opts.token)
	} else if opts.email != "" {
		if err := client.Login(ctx, opts.email, opts.password); err != nil {
			return err
		}
	}
	client.StartSessionWatch(ctx)

	// Optional shared history cache for multi-terminal deployments.
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("redis unavailable, history cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			client.SetHistoryCache(cache.NewRedisStore(redisClient, cfg.HistoryCacheTTL))
		}
	}

	flow := checkout.NewFlow(client, cfg.PollInterval, log)
	return runPurchase(ctx, flow, client, cfg, log, &opts)
}

func runPurchase(ctx context.Context, flow *checkout.Flow, client *api.Client, cfg *config.Config, log logger.Logger, opts *options) error {
	event, selection, err := flow.Begin(ctx, opts.eventID, opts.userID)
	if err != nil {
		return err
	}
	log.Info("event loaded", "event", event.Name, "tickets", len(event.Tickets))

	wanted, err := parseBuySpec(opts.buySpec)
	if err != nil {
		return err
	}
	for ticketID, qty := range wanted {
		for i := 0; i < qty; i++ {
			if err := selection.Adjust(ticketID, +1); err != nil {
				return fmt.Errorf("ticket %d: %w", ticketID, err)
			}
		}
	}
	if err := selection.Revalidate(ctx); err != nil {
		log.Warn("limit validation unavailable, proceeding on local bounds", "error", err)
	}
	for ticketID := range wanted {
		if status, ok := selection.Validation(ticketID); ok && !status.IsValid {
			return fmt.Errorf("ticket %d: %s", ticketID, status.ErrorMessage)
		}
	}
	log.Info("selection valid", "total", selection.Total().StringFixed(2))

	picker, err := flow.Methods(ctx, selection)
	if err != nil {
		return err
	}
	if err := picker.Select(opts.method); err != nil {
		return err
	}
	method, items, err := picker.Proceed()
	if err != nil {
		return err
	}

	submission, err := buildSubmission(method, items, opts)
	if err != nil {
		return err
	}

	created, err := flow.Submit(ctx, opts.eventID, submission)
	if err != nil {
		return err
	}
	if created.RedirectURL != "" {
		fmt.Printf("Complete payment at: %s\n", created.RedirectURL)
	}

	poller := checkout.NewStatusPoller(client, created.Order.ID, cfg.PollInterval, log,
		checkout.OnUpdate(func(status *models.OrderStatus) {
			for _, va := range status.VANumbers {
				fmt.Printf("Transfer to %s VA %s\n", strings.ToUpper(va.Bank), va.VANumber)
			}
			log.Info("payment status", "order_id", status.OrderID, "status", status.PaymentStatus)
		}),
	)

	// Push notifications, when configured, trigger an immediate poll so
	// the checkout settles without waiting for the next tick.
	if cfg.PubNubSubscribeKey != "" {
		listener := notify.NewListener(notify.Config{
			SubscribeKey: cfg.PubNubSubscribeKey,
			Channel:      cfg.PubNubChannel,
			UserID:       cfg.PubNubUserID,
		}, func(notice notify.PaymentNotice) {
			if notice.OrderID == created.Order.ID {
				poller.CheckNow()
			}
		}, log)
		listener.Start(ctx)
	}

	final := poller.Run(ctx)
	if final == nil {
		return fmt.Errorf("cancelled before payment settled")
	}
	if final.PaymentStatus != models.PaymentSuccess {
		return fmt.Errorf("payment %s", final.PaymentStatus)
	}

	for _, ticket := range final.Tickets {
		path, err := export.SaveTicket(ctx, ticket, event, opts.outDir, export.PDFOptions{
			LogoURL: logoURL(event),
			Logger:  log,
		})
		if err != nil {
			log.Error("ticket export failed", "ticket_code", ticket.TicketCode, "error", err)
			continue
		}
		fmt.Printf("Saved %s\n", path)
	}
	return nil
}

func buildSubmission(method models.PaymentMethod, items []models.LimitCheckItem, opts *options) (*models.PaymentSubmission, error) {
	var card *models.CardDetails
	var bank *models.BankTransferDetails

	switch method.Type {
	case "credit_card":
		month, year, err := parseExpiry(opts.cardExpiry)
		if err != nil {
			return nil, err
		}
		card = &models.CardDetails{
			Number:      opts.cardNumber,
			ExpiryMonth: month,
			ExpiryYear:  year,
			CVV:         opts.cardCVV,
		}
	case "bank_transfer":
		bank = &models.BankTransferDetails{BankCode: opts.bankCode}
	}

	return checkout.BuildSubmission(method, card, bank, items, time.Now())
}

// parseBuySpec parses "12=2,15=1" into ticketID -> quantity.
func parseBuySpec(spec string) (map[int]int, error) {
	wanted := make(map[int]int)
	for _, pair := range strings.Split(spec, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("bad selection %q, want ticketID=qty", pair)
		}
		ticketID, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("bad ticket id %q", parts[0])
		}
		qty, err := strconv.Atoi(parts[1])
		if err != nil || qty < 1 {
			return nil, fmt.Errorf("bad quantity %q", parts[1])
		}
		wanted[ticketID] = qty
	}
	return wanted, nil
}

// parseExpiry parses MM/YY or MM/YYYY.
func parseExpiry(s string) (month, year int, err error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad card expiry %q, want MM/YY", s)
	}
	month, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad expiry month %q", parts[0])
	}
	year, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad expiry year %q", parts[1])
	}
	if year < 100 {
		year += 2000
	}
	return month, year, nil
}

func logoURL(event *models.Event) string {
	if event.Organizer != nil {
		return event.Organizer.Logo
	}
	return ""
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc, log logger.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("shutdown signal received, cleaning up")
	cancel()
}
