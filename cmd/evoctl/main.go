package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mdp/qrterminal"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
	"github.com/EvolutionAPI/evo-ai-console/internal/biz/usecase"
	"github.com/EvolutionAPI/evo-ai-console/internal/conf"
	"github.com/EvolutionAPI/evo-ai-console/internal/data"
)

// evoctl pairs a WhatsApp instance from the terminal: it renders the QR
// code as ASCII (and optionally as a PNG) and follows the pairing flow to
// its terminal state.
func main() {
	pngPath := flag.String("png", "", "also write the QR code to this PNG file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: evoctl [-png out.png] <instance-name>")
		os.Exit(2)
	}
	name := flag.Arg(0)

	cfg, err := conf.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.EvolutionURL == "" {
		log.Fatal("EVOLUTION_API_URL is required")
	}

	instanceRepo := data.NewEvolutionRepo(cfg.Evolution(), cfg.HTTPTimeout(), cfg.RequestsPerSecond)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	instances, err := instanceRepo.ListInstances(ctx)
	if err != nil {
		log.Fatalf("Failed to list instances: %v", err)
	}
	var target domain.WhatsAppInstance
	found := false
	for _, instance := range instances {
		if instance.Name == name {
			target = instance
			found = true
			break
		}
	}
	if !found {
		log.Fatalf("Unknown instance: %s", name)
	}

	pairing := usecase.NewPairingUsecase(instanceRepo, usecase.LogNotifier{}, usecase.DefaultPairingTimings())
	pairing.Start(ctx, target)

	go func() {
		<-ctx.Done()
		pairing.Stop()
	}()

	rendered := false
	for snap := range pairing.Updates() {
		switch snap.State {
		case domain.PairingReady:
			if !rendered {
				rendered = true
				render(snap.Code, snap.Image, *pngPath)
				fmt.Printf("Scan within %d seconds.\n", snap.SecondsLeft)
			} else if snap.SecondsLeft > 0 && snap.SecondsLeft%10 == 0 {
				fmt.Printf("%d seconds left...\n", snap.SecondsLeft)
			}

		case domain.PairingConnected:
			fmt.Println("Connected.")
			return

		case domain.PairingExpired:
			fmt.Println("QR code expired. Run evoctl again to retry.")
			os.Exit(1)

		case domain.PairingFailed:
			fmt.Printf("Pairing failed: %s\n", snap.LastError)
			os.Exit(1)
		}
	}
}

// render shows the pairing payload. A raw code becomes an ASCII QR in the
// terminal; the PNG output prefers the code and falls back to the image the
// server already rendered.
func render(code, image, pngPath string) {
	if code != "" {
		qrterminal.Generate(code, qrterminal.L, os.Stdout)
		fmt.Printf("Pairing code: %s\n", code)
	}

	if pngPath == "" {
		return
	}
	if code != "" {
		if err := qrcode.WriteFile(code, qrcode.Medium, 256, pngPath); err != nil {
			log.Printf("[evoctl] write png: %v", err)
			return
		}
		fmt.Printf("QR code written to %s\n", pngPath)
		return
	}
	if image != "" {
		raw := image
		if idx := strings.Index(raw, "base64,"); idx >= 0 {
			raw = raw[idx+len("base64,"):]
		}
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			log.Printf("[evoctl] decode qr image: %v", err)
			return
		}
		if err := os.WriteFile(pngPath, decoded, 0644); err != nil {
			log.Printf("[evoctl] write png: %v", err)
			return
		}
		fmt.Printf("QR code written to %s\n", pngPath)
	}
}
