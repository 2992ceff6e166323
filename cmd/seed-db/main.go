package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/user"
	"github.com/xenking/storefront/internal/storage/postgres"
)

type config struct {
	DatabaseURL   string `usage:"PostgreSQL connection URL (or DATABASE_URL env)" flag:"database-url"`
	ProductsFile  string `default:"db/seed/products.json" usage:"Path to the products file (.json or .json.gz)" flag:"products-file"`
	Workers       int    `default:"4" usage:"Concurrent product upserts"`
	AdminEmail    string `usage:"Email of the admin account to create" flag:"admin-email"`
	AdminPassword string `usage:"Password of the admin account" flag:"admin-password"`
}

type productJSON struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ListPrice   decimal.Decimal `json:"list_price"`
	Description string          `json:"description"`
	Category    int16           `json:"category"`
	Featured    bool            `json:"featured"`
	New         bool            `json:"new"`
	OnSale      bool            `json:"on_sale"`
	Images      struct {
		Thumbnail string `json:"thumbnail"`
		Medium    string `json:"medium"`
		Large     string `json:"large"`
	} `json:"images"`
}

func main() {
	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	var cfg config
	if err := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SEED",
		SkipFiles: true,
	}).Load(); err != nil {
		lg.Fatal("Load config", zap.Error(err))
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, cfg); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, cfg config) error {
	lg.Info("Connecting to database")

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, lg, postgres.NewProductRepository(pool), cfg); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if cfg.AdminEmail != "" {
		users := user.NewService(postgres.NewUserRepository(pool), user.BcryptHasher{})
		if err := seedAdmin(ctx, lg, users, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return errors.Wrap(err, "seed admin")
		}
	}

	return nil
}

func readProducts(path string) ([]productJSON, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open products file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var products []productJSON
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}
	return products, nil
}

func seedProducts(ctx context.Context, lg *zap.Logger, w product.Writer, cfg config) error {
	lg.Info("Reading products file", zap.String("path", cfg.ProductsFile))

	products, err := readProducts(cfg.ProductsFile)
	if err != nil {
		return err
	}

	lg.Info("Upserting products", zap.Int("count", len(products)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for _, pj := range products {
		p := &product.Product{
			Name:        pj.Name,
			Price:       pj.Price,
			ListPrice:   pj.ListPrice,
			Description: pj.Description,
			Category:    product.Category(pj.Category),
			Featured:    pj.Featured,
			New:         pj.New,
			OnSale:      pj.OnSale,
			Images: product.ImageSet{
				Thumbnail: pj.Images.Thumbnail,
				Medium:    pj.Images.Medium,
				Large:     pj.Images.Large,
			},
		}
		g.Go(func() error {
			if err := w.Upsert(gctx, p); err != nil {
				return errors.Wrapf(err, "upsert product %q", p.Name)
			}
			lg.Debug("Upserted product", zap.Int64("id", p.ID), zap.String("slug", p.Slug))
			return nil
		})
	}
	return g.Wait()
}

func seedAdmin(ctx context.Context, lg *zap.Logger, users *user.Service, email, password string) error {
	u, err := users.Create(ctx, user.CreateRequest{
		FirstName:            "Admin",
		LastName:             "User",
		Email:                email,
		Password:             password,
		PasswordConfirmation: password,
		Staff:                true,
		Admin:                true,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		lg.Info("Admin already exists", zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}
	lg.Info("Created admin", zap.Int64("id", u.ID), zap.String("email", u.Email))
	return nil
}
