package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dropsland/config"
	"dropsland/core"
	"dropsland/crypto"
	"dropsland/observability/logging"
	"dropsland/rpc"
	"dropsland/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	keygen := flag.Bool("keygen", false, "Generate a new key pair, print it and exit")
	showAddress := flag.String("show-address", "", "Print the address for a hex-encoded private key and exit")
	flag.Parse()

	if *keygen {
		if err := runKeygen(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if key := strings.TrimSpace(*showAddress); key != "" {
		if err := runShowAddress(os.Stdout, key); err != nil {
			fmt.Fprintf(os.Stderr, "show-address: %v\n", err)
			os.Exit(1)
		}
		return
	}

	env := strings.TrimSpace(os.Getenv("DROPSLAND_ENV"))
	logger := logging.Setup("dropslandd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.String("dir", cfg.DataDir), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	node := core.NewNode(db)
	authority, ok, err := cfg.RewardAuthorityBytes()
	if err != nil {
		logger.Error("Invalid reward authority", slog.Any("error", err))
		os.Exit(1)
	}
	if ok {
		node.SetRewardAuthority(authority)
		logger.Info("Reward authority configured",
			slog.String("address", crypto.MustNewAddress(crypto.DropPrefix, authority[:]).String()))
	} else {
		logger.Warn("No reward authority configured; direct burns are disabled")
	}

	if addr := strings.TrimSpace(cfg.MetricsAddress); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("Metrics server listening", slog.String("address", addr))
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("Metrics server stopped", slog.Any("error", err))
			}
		}()
	}

	logger.Info("Starting node",
		slog.String("network", cfg.NetworkName),
		slog.String("rpc", cfg.RPCAddress),
		slog.String("data", cfg.DataDir))

	server := rpc.NewServer(node)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// runKeygen creates a fresh key pair for operators setting up an artist or
// reward-authority identity.
func runKeygen(w io.Writer) error {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "private key: %s\n", hex.EncodeToString(key.Bytes()))
	fmt.Fprintf(w, "address:     %s\n", key.PubKey().Address().String())
	return nil
}

// runShowAddress derives the ledger address for an existing private key, for
// example to fill RewardAuthority in the config file.
func runShowAddress(w io.Writer, hexKey string) error {
	raw, err := hex.DecodeString(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return fmt.Errorf("private key must be hex encoded: %w", err)
	}
	key, err := crypto.PrivateKeyFromBytes(raw)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", key.PubKey().Address().String())
	return nil
}
