package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/veloracommerce/storefront-client/internal/api"
	"github.com/veloracommerce/storefront-client/internal/cart"
	"github.com/veloracommerce/storefront-client/internal/catalog"
	"github.com/veloracommerce/storefront-client/internal/orders"
	"github.com/veloracommerce/storefront-client/internal/session"
	"github.com/veloracommerce/storefront-client/internal/snapshot"
	"github.com/veloracommerce/storefront-client/internal/wishlist"
	"github.com/veloracommerce/storefront-client/pkg/config"
	"github.com/veloracommerce/storefront-client/pkg/logger"
	"github.com/veloracommerce/storefront-client/pkg/metrics"
	"github.com/veloracommerce/storefront-client/pkg/types"
	"go.uber.org/multierr"
)

const usage = `usage: storefront <command> [args]

commands:
  cart show                          display the current cart
  cart add <productId> <qty> [size] [color]
  cart qty <itemId> <qty>
  cart rm <itemId>
  cart coupon <code>
  cart clear
  checkout                           place an order (see checkout -h)
  login <email> <password>
  register <name> <email> <password>
  products                           browse the catalog (see products -h)
  product <idOrSlug>
  orders                             list your orders
  track <orderNumber>
  wishlist show|add|rm [productId]
`

type app struct {
	cfg       *config.Config
	logg      *logger.Logger
	snapshots snapshot.Store
	session   *session.Manager
	cart      *cart.Store
	catalog   *catalog.Client
	orders    *orders.Client
	wishlist  *wishlist.Client
}

func newApp(ctx context.Context) (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logg := logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	snapshots, err := snapshot.New(ctx, cfg.Snapshot, cfg.Redis, logg)
	if err != nil {
		return nil, err
	}

	manager := session.NewManager(logg)
	client, err := api.NewClient(cfg.API, manager, logg)
	if err != nil {
		return nil, multierr.Append(err, snapshots.Close())
	}

	store, err := cart.NewStore(ctx, cart.StoreParams{
		Transport: client,
		Snapshots: snapshots,
		Logger:    logg,
		Metrics:   metrics.NewCartOpMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return nil, multierr.Append(err, snapshots.Close())
	}
	manager.Bind(client, store)

	return &app{
		cfg:       cfg,
		logg:      logg,
		snapshots: snapshots,
		session:   manager,
		cart:      store,
		catalog:   catalog.NewClient(client, logg),
		orders:    orders.NewClient(client, store, logg),
		wishlist:  wishlist.NewClient(client, logg),
	}, nil
}

func (a *app) Close() error {
	return multierr.Combine(a.snapshots.Close())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	application, err := newApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "startup:", err)
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "shutdown:", err)
		}
	}()

	if err := application.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "cart":
		return a.runCart(ctx, args)
	case "checkout":
		return a.runCheckout(ctx, args)
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: login <email> <password>")
		}
		user, err := a.session.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("signed in as %s <%s>\n", user.Name, user.Email)
		return nil
	case "register":
		if len(args) != 3 {
			return fmt.Errorf("usage: register <name> <email> <password>")
		}
		user, err := a.session.Register(ctx, session.RegisterInput{
			Name: args[0], Email: args[1], Password: args[2],
		})
		if err != nil {
			return err
		}
		fmt.Printf("welcome, %s\n", user.Name)
		return nil
	case "products":
		return a.runProducts(ctx, args)
	case "product":
		if len(args) != 1 {
			return fmt.Errorf("usage: product <idOrSlug>")
		}
		product, err := a.catalog.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(product)
	case "orders":
		list, err := a.orders.List(ctx)
		if err != nil {
			return err
		}
		return printJSON(list)
	case "track":
		if len(args) != 1 {
			return fmt.Errorf("usage: track <orderNumber>")
		}
		order, err := a.orders.Track(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(order)
	case "wishlist":
		return a.runWishlist(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}

func (a *app) runCart(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: cart show|add|qty|rm|coupon|clear")
	}
	switch args[0] {
	case "show":
		return printCart(a.cart.Load(ctx))
	case "add":
		if len(args) < 3 {
			return fmt.Errorf("usage: cart add <productId> <qty> [size] [color]")
		}
		quantity, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("quantity must be a number: %q", args[2])
		}
		size, color := "", ""
		if len(args) > 3 {
			size = args[3]
		}
		if len(args) > 4 {
			color = args[4]
		}
		updated, err := a.cart.Add(ctx, args[1], quantity, size, color)
		if err != nil {
			return err
		}
		return printCart(updated)
	case "qty":
		if len(args) != 3 {
			return fmt.Errorf("usage: cart qty <itemId> <qty>")
		}
		quantity, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("quantity must be a number: %q", args[2])
		}
		updated, err := a.cart.UpdateQuantity(ctx, args[1], quantity)
		if err != nil {
			return err
		}
		return printCart(updated)
	case "rm":
		if len(args) != 2 {
			return fmt.Errorf("usage: cart rm <itemId>")
		}
		updated, err := a.cart.RemoveItem(ctx, args[1])
		if err != nil {
			return err
		}
		return printCart(updated)
	case "coupon":
		if len(args) != 2 {
			return fmt.Errorf("usage: cart coupon <code>")
		}
		updated, err := a.cart.ApplyCoupon(ctx, args[1])
		if err != nil {
			return err
		}
		return printCart(updated)
	case "clear":
		return printCart(a.cart.Clear(ctx))
	}
	return fmt.Errorf("unknown cart subcommand %q", args[0])
}

func (a *app) runCheckout(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("checkout", flag.ContinueOnError)
	name := flags.String("name", "", "recipient full name")
	line1 := flags.String("line1", "", "address line 1")
	line2 := flags.String("line2", "", "address line 2")
	city := flags.String("city", "", "city")
	state := flags.String("state", "", "state or region")
	postal := flags.String("postal", "", "postal code")
	country := flags.String("country", "", "country code")
	phone := flags.String("phone", "", "contact phone")
	payment := flags.String("payment", "card", "payment method: card, cod, or paypal")
	if err := flags.Parse(args); err != nil {
		return err
	}

	// Reconcile with the server before paying; the price gate runs against
	// the freshest state we can get.
	a.cart.Load(ctx)

	order, err := a.orders.PlaceOrder(ctx, orders.PlaceOrderInput{
		Address: orders.ShippingAddress{
			FullName:   *name,
			Line1:      *line1,
			Line2:      *line2,
			City:       *city,
			State:      *state,
			PostalCode: *postal,
			Country:    *country,
			Phone:      *phone,
		},
		PaymentMethod: *payment,
	})
	if err != nil {
		return err
	}
	fmt.Printf("order %s placed, total %s\n", order.OrderNumber, order.Total)
	return nil
}

func (a *app) runProducts(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("products", flag.ContinueOnError)
	category := flags.String("category", "", "filter by category")
	search := flags.String("search", "", "search name and description")
	sortBy := flags.String("sort", "", "sort: price_asc, price_desc, or name")
	page := flags.Int("page", 0, "page number")
	limit := flags.Int("limit", 0, "page size")
	if err := flags.Parse(args); err != nil {
		return err
	}

	result, err := a.catalog.List(ctx, catalog.ListFilter{
		Category: *category,
		Search:   *search,
		Sort:     *sortBy,
		Page:     *page,
		Limit:    *limit,
	})
	if err != nil {
		return err
	}
	for _, product := range result.Products {
		fmt.Printf("%-14s %-20s %8s  stock:%d\n", product.ID, product.Name, product.Price, product.Stock)
	}
	fmt.Printf("page %d/%d (%d products)\n", result.Page, result.Pages, result.Total)
	return nil
}

func (a *app) runWishlist(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: wishlist show|add|rm [productId]")
	}
	switch args[0] {
	case "show":
		items, err := a.wishlist.Load(ctx)
		if err != nil {
			return err
		}
		return printJSON(items)
	case "add":
		if len(args) != 2 {
			return fmt.Errorf("usage: wishlist add <productId>")
		}
		items, err := a.wishlist.Add(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(items)
	case "rm":
		if len(args) != 2 {
			return fmt.Errorf("usage: wishlist rm <productId>")
		}
		items, err := a.wishlist.Remove(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(items)
	}
	return fmt.Errorf("unknown wishlist subcommand %q", args[0])
}

func printCart(c types.Cart) error {
	if flagged := c.PriceChangedItems(); len(flagged) > 0 {
		fmt.Fprintln(os.Stderr, "warning: prices changed on some items; review the cart before checkout")
	}
	return printJSON(c)
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
