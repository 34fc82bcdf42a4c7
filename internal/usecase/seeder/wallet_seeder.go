package seeder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/simaogato/walletflow/internal/domain"
	"github.com/simaogato/walletflow/internal/usecase/ledger"
)

// SeedWallet defines the structure for a wallet to be seeded
type SeedWallet struct {
	Name         string `yaml:"name"`
	Kind         string `yaml:"kind"`
	Description  string `yaml:"description"`
	InterestRate string `yaml:"interest_rate"`
}

// SeedFile is the YAML document read at startup
type SeedFile struct {
	Wallets []SeedWallet `yaml:"wallets"`
}

// WalletStore is the subset of the ledger the seeder needs
type WalletStore interface {
	ListWallets(ctx context.Context) ([]*domain.Wallet, error)
	CreateWallet(ctx context.Context, input ledger.CreateWalletInput) (*domain.Wallet, error)
}

// WalletSeeder handles seeding of configured wallets
type WalletSeeder struct {
	store  WalletStore
	seed   SeedFile
	logger *zap.Logger
}

// NewWalletSeeder creates a new WalletSeeder instance
func NewWalletSeeder(store WalletStore, seed SeedFile, logger *zap.Logger) *WalletSeeder {
	return &WalletSeeder{
		store:  store,
		seed:   seed,
		logger: logger,
	}
}

// LoadSeedFile reads and parses a YAML seed file
func LoadSeedFile(path string) (SeedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return SeedFile{}, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

// ParseSeed decodes a seed document. Unknown keys are rejected.
func ParseSeed(r io.Reader) (SeedFile, error) {
	var seed SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return SeedFile{}, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return seed, nil
}

// Seed ensures every configured wallet exists.
// Wallets are matched by name; existing ones are left untouched.
func (s *WalletSeeder) Seed(ctx context.Context) error {
	existing, err := s.store.ListWallets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list wallets: %w", err)
	}

	names := make(map[string]bool, len(existing))
	for _, w := range existing {
		names[w.Name] = true
	}

	for _, sw := range s.seed.Wallets {
		name := strings.TrimSpace(sw.Name)
		if names[name] {
			continue
		}

		input := ledger.CreateWalletInput{
			Name:        name,
			Kind:        sw.Kind,
			Description: sw.Description,
		}
		if sw.InterestRate != "" {
			rate, err := decimal.NewFromString(sw.InterestRate)
			if err != nil {
				return fmt.Errorf("seed wallet %q: %w", name, domain.Validationf("invalid interest rate %q", sw.InterestRate))
			}
			input.InterestRate = &rate
		}

		wallet, err := s.store.CreateWallet(ctx, input)
		if err != nil {
			return fmt.Errorf("seed wallet %q: %w", name, err)
		}
		names[name] = true

		s.logger.Info("seeded wallet",
			zap.String("wallet_id", wallet.ID.String()),
			zap.String("name", wallet.Name))
	}

	return nil
}
