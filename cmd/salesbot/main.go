package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"whatsapp-salesbot/internal/analytics"
	"whatsapp-salesbot/internal/api"
	"whatsapp-salesbot/internal/classifier"
	"whatsapp-salesbot/internal/config"
	"whatsapp-salesbot/internal/database"
	"whatsapp-salesbot/internal/engine"
	"whatsapp-salesbot/internal/followup"
	"whatsapp-salesbot/internal/funnel"
	"whatsapp-salesbot/internal/script"
	"whatsapp-salesbot/internal/ws"
	"whatsapp-salesbot/internal/wweb"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger, err := newLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal("opening store failed", zap.Error(err))
	}
	defer store.Close()

	if err := store.SeedScripts(script.Seeds()); err != nil {
		logger.Fatal("seeding scripts failed", zap.Error(err))
	}

	cls := classifier.New(logger)
	rulebook := script.NewRulebook(store, cls, logger)
	reporter := analytics.NewReporter(store)

	reader := bufio.NewReader(os.Stdin)

	product := prompt(reader, fmt.Sprintf("Qual produto deseja vender? (Enter para '%s'): ", cfg.DefaultProduct))
	if product == "" {
		product = cfg.DefaultProduct
	}

	trainScripts(reader, rulebook, logger)
	contacts := collectContacts(reader, store, logger)
	if len(contacts) == 0 {
		fmt.Println("Nenhum contato informado. Encerrando.")
		return
	}

	client, err := wweb.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("WhatsApp Web connection failed", zap.Error(err))
	}
	defer client.Close()

	eng := engine.New(store, cls, rulebook, client, product, logger)
	scheduler := followup.New(store, cls, rulebook, client, product, cfg.FollowUpInterval, cfg.IdleGrace, logger)

	var hub *ws.Hub
	if cfg.DashboardPort != "" {
		hub = ws.NewHub(logger)
		go hub.Run()
		eng.SetNotifier(hub)

		router := api.NewRouter(store, rulebook, reporter, hub)
		go func() {
			logger.Info("dashboard listening", zap.String("port", cfg.DashboardPort))
			if err := router.Run(":" + cfg.DashboardPort); err != nil {
				logger.Error("dashboard stopped", zap.Error(err))
			}
		}()
	}

	fmt.Println("🤖 Bot iniciado. Pressione Ctrl+C para encerrar.")
	for {
		if err := runCycle(cfg, store, eng, scheduler, client, contacts, logger); err != nil {
			logger.Error("cycle failed", zap.Error(err))
			client.CaptureDiagnostic("cycle")
			time.Sleep(cfg.ErrorPause)
			continue
		}

		if err := reporter.Render(os.Stdout); err != nil {
			logger.Warn("report rendering failed", zap.Error(err))
		}

		// Jittered pause between cycles keeps the cadence irregular.
		pause := cfg.CyclePause + time.Duration(rand.Int63n(int64(5*time.Second)))
		time.Sleep(pause)
	}
}

// runCycle walks every contact once: first contact gets the opening message,
// the rest have their latest incoming messages pulled and answered.
func runCycle(cfg *config.Config, store *database.Store, eng *engine.Engine, scheduler *followup.Scheduler, client *wweb.Client, contacts []string, logger *zap.Logger) error {
	for _, name := range contacts {
		contact, err := store.ContactByName(name)
		if err != nil {
			logger.Warn("contact lookup failed", zap.String("contact", name), zap.Error(err))
			continue
		}
		if contact.CurrentStage == string(funnel.StageOptOut) {
			continue
		}

		if !contact.InitialMessageSent {
			if _, err := eng.HandleInitialOutreach(contact); err != nil {
				return err
			}
			time.Sleep(cfg.ContactPause)
			continue
		}

		fragments, err := client.ReceiveLatest(name, cfg.ReceiveWindow)
		if err != nil {
			logger.Warn("receive failed", zap.String("contact", name), zap.Error(err))
			continue
		}
		for _, text := range fragments {
			if _, err := eng.HandleInbound(contact, text); err != nil {
				return err
			}
		}
		time.Sleep(cfg.ContactPause)
	}

	return scheduler.Run(time.Now())
}

// trainScripts runs the optional interactive training session before the bot
// starts.
func trainScripts(reader *bufio.Reader, rulebook *script.Rulebook, logger *zap.Logger) {
	answer := prompt(reader, "Deseja treinar novos scripts? (s/n): ")
	if !strings.EqualFold(answer, "s") {
		return
	}

	for {
		stage := prompt(reader, "Estágio (prospecting/nurturing/objection/closing/follow-up, ou 'sair'): ")
		if strings.EqualFold(stage, "sair") {
			return
		}
		keyword := prompt(reader, "Palavras-chave (separadas por |): ")
		response := prompt(reader, "Resposta (use {contact_name}, {product}, {benefit}, {pain_point}, {industry}): ")
		tone := prompt(reader, "Tom (casual/professional/formal, Enter para professional): ")

		if err := rulebook.Train(funnel.Stage(stage), keyword, response, classifier.Tone(tone)); err != nil {
			logger.Error("training script failed", zap.Error(err))
			fmt.Println("Erro ao salvar o script, tente novamente.")
			continue
		}
		fmt.Println("✅ Script salvo!")
	}
}

// collectContacts reads "nome;setor;dor" lines until the operator types
// "sair", registering each contact in the store.
func collectContacts(reader *bufio.Reader, store *database.Store, logger *zap.Logger) []string {
	fmt.Println("Informe os contatos no formato nome;setor;dor ('sair' para terminar):")

	var names []string
	for {
		line := prompt(reader, "> ")
		if strings.EqualFold(line, "sair") {
			return names
		}
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, ";", 3)
		name := strings.TrimSpace(parts[0])
		if name == "" {
			continue
		}
		var industry, painPoint string
		if len(parts) > 1 {
			industry = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			painPoint = strings.TrimSpace(parts[2])
		}

		contact, err := store.GetOrCreateContact(name, industry, painPoint)
		if err != nil {
			logger.Error("registering contact failed", zap.String("contact", name), zap.Error(err))
			fmt.Println("Erro ao registrar contato, tente novamente.")
			continue
		}
		names = append(names, contact.Name)
		fmt.Printf("✅ Contato %s registrado (estágio %s)\n", contact.Name, contact.CurrentStage)
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func newLogger(logPath string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.OutputPaths = []string{"stderr", logPath}
	return zapCfg.Build()
}
