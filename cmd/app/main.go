package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/Sai2266/dealership-platform/internal"
	"github.com/Sai2266/dealership-platform/internal/apiclient"
	"github.com/Sai2266/dealership-platform/internal/apperr"
	"github.com/Sai2266/dealership-platform/internal/index"
	"github.com/Sai2266/dealership-platform/internal/mcpserver"
	"github.com/Sai2266/dealership-platform/internal/models"
	"github.com/Sai2266/dealership-platform/internal/navguard"
	"github.com/Sai2266/dealership-platform/internal/review"
	pkgconfig "github.com/Sai2266/dealership-platform/pkg/config"
)

// buildApp loads config and wires the application for one command run.
func buildApp(cmd *cli.Command) (*internal.App, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfPresent(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return internal.NewApp(internal.WithConfig(cfg))
}

func argID(cmd *cli.Command) (int, error) {
	raw := cmd.Args().First()
	if raw == "" {
		return 0, fmt.Errorf("document id is required")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("document id must be numeric: %q", raw)
	}
	return id, nil
}

func loginAction(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	sess, err := app.Client.Login(ctx, apiclient.Credentials{
		Email:    cmd.String("email"),
		Password: cmd.String("password"),
	})
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			return fmt.Errorf("invalid email or password")
		}
		return err
	}
	if err := app.Sessions.Establish(sess.Token, sess.User); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	app.Guard.Navigate(navguard.DestDashboard)
	fmt.Printf("Logged in as %s (%s)\n", sess.User.Email, sess.User.DealershipName)
	return nil
}

func registerAction(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	conf, err := app.Client.Register(ctx, apiclient.Registration{
		Email:          cmd.String("email"),
		Password:       cmd.String("password"),
		DealershipName: cmd.String("dealership"),
		Role:           cmd.String("role"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s - please login\n", conf.Message)
	return nil
}

func logoutAction(_ context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Sessions.Clear()
	app.Guard.Navigate(navguard.DestAuth)
	fmt.Println("Logged out")
	return nil
}

func whoamiAction(_ context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	sess, ok := app.Sessions.Current()
	if !ok {
		fmt.Println("Not logged in")
		return nil
	}
	fmt.Printf("%s (%s, %s)\n", sess.User.Email, sess.User.DealershipName, sess.User.Role)
	return nil
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Enter(navguard.DestDocuments); err != nil {
		return err
	}
	docs, err := app.Docs.List(ctx)
	if err != nil {
		return err
	}
	index.SyncList(app.Index, docs, app.Logger())

	if len(docs) == 0 {
		fmt.Println("No documents yet")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILENAME\tTYPE\tSTATUS\tUPLOADED")
	for _, d := range docs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			d.ID, d.OriginalFilename, d.FileType, d.Status, d.UploadedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}

func viewAction(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Enter(navguard.DestDocuments); err != nil {
		return err
	}
	id, err := argID(cmd)
	if err != nil {
		return err
	}

	var dialog review.Dialog
	dialog.Begin(id)
	detail, err := app.Docs.Detail(ctx, id)
	if err != nil {
		dialog.Close()
		return err
	}
	dialog.Loaded(detail)
	defer dialog.Close()
	index.SyncDetail(app.Index, detail, app.Logger())

	cur, _ := dialog.Current()
	fmt.Printf("Document #%d: %s [%s]\n", cur.ID, cur.Filename, cur.Status)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "VIN:\t%s\n", cur.VIN)
	fmt.Fprintf(tw, "Buyer:\t%s\n", cur.BuyerName)
	fmt.Fprintf(tw, "Seller:\t%s\n", cur.SellerName)
	fmt.Fprintf(tw, "Sale date:\t%s\n", cur.SaleDate)
	fmt.Fprintf(tw, "Sale amount:\t%s\n", cur.SaleAmount)
	fmt.Fprintf(tw, "Odometer:\t%s\n", cur.OdometerReading)
	fmt.Fprintf(tw, "Type:\t%s\n", cur.DocumentType)
	fmt.Fprintf(tw, "Notes:\t%s\n", cur.Notes)
	return tw.Flush()
}

func notesAction(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Enter(navguard.DestDocuments); err != nil {
		return err
	}
	id, err := argID(cmd)
	if err != nil {
		return err
	}

	if err := app.Docs.SaveNotes(ctx, id, cmd.String("set")); err != nil {
		return err
	}
	// Notes saved; re-fetch rather than patch any cached detail.
	detail, err := app.Docs.Detail(ctx, id)
	if err != nil {
		return err
	}
	index.SyncDetail(app.Index, detail, app.Logger())
	fmt.Println("Notes saved")
	return nil
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Enter(navguard.DestDocuments); err != nil {
		return err
	}
	id, err := argID(cmd)
	if err != nil {
		return err
	}

	data, name, err := app.Docs.Download(ctx, id)
	if err != nil {
		return err
	}
	if name == "" {
		if row, rowErr := app.Index.Get(id); rowErr == nil && row != nil && row.OriginalFilename != "" {
			name = row.OriginalFilename
		} else {
			name = fmt.Sprintf("document-%d", id)
		}
	}
	if err := app.Downloads.Write(name, data); err != nil {
		return err
	}
	fmt.Printf("Saved %s (%d bytes)\n", name, len(data))
	return nil
}

func deleteAction(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Enter(navguard.DestDocuments); err != nil {
		return err
	}
	id, err := argID(cmd)
	if err != nil {
		return err
	}

	// Deletion requires explicit confirmation at this boundary.
	if !cmd.Bool("yes") {
		fmt.Printf("Delete document %d? [y/N] ", id)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted")
			return nil
		}
	}

	if err := app.Docs.Delete(ctx, id); err != nil {
		return err
	}
	index.SyncList(app.Index, app.Docs.Cached(), app.Logger())
	fmt.Println("Deleted")
	return nil
}

func uploadAction(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Enter(navguard.DestUpload); err != nil {
		return err
	}
	if err := app.Uploads.Select(cmd.Args().Slice()); err != nil {
		return err
	}
	result, err := app.Uploads.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Println(result.Message)
	for _, f := range result.Uploaded {
		fmt.Printf("  %s (id %d)\n", f.Filename, f.ID)
	}
	for _, e := range result.Errors {
		fmt.Printf("  rejected: %s\n", e)
	}
	return nil
}

func searchAction(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("search query is required")
	}

	// Best-effort refresh; search still works offline from the cache.
	if _, ok := app.Sessions.Current(); ok {
		if docs, err := app.Docs.List(ctx); err == nil {
			index.SyncList(app.Index, docs, app.Logger())
		}
	}

	results, err := app.Index.Search(query, 20)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No matches")
		return nil
	}
	for _, r := range results {
		fmt.Printf("#%d %s [%s] %s\n", r.ID, r.OriginalFilename, r.Status, r.Snippet)
	}
	return nil
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.RunInbox(ctx)
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	app, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Enter(navguard.DestDocuments); err != nil {
		return err
	}
	return mcpserver.New(app.Docs, app.Index, app.Uploads).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("DEALERDOCS_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "dealerdocs",
		Usage: "Dealership document workflow client: upload scanned sale documents, review OCR results, manage annotations",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate and persist the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true, Usage: "Account email"},
					&cli.StringFlag{Name: "password", Required: true, Usage: "Account password"},
				},
				Action: loginAction,
			},
			{
				Name:  "register",
				Usage: "Create a new dealer account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true, Usage: "Account email"},
					&cli.StringFlag{Name: "password", Required: true, Usage: "Account password"},
					&cli.StringFlag{Name: "dealership", Required: true, Usage: "Dealership name"},
					&cli.StringFlag{Name: "role", Value: models.RoleDealer, Usage: "Account role (dealer or admin)"},
				},
				Action: registerAction,
			},
			{Name: "logout", Usage: "Clear the persisted session", Action: logoutAction},
			{Name: "whoami", Usage: "Show the current session", Action: whoamiAction},
			{Name: "list", Usage: "List uploaded documents", Action: listAction},
			{Name: "view", Usage: "Show OCR fields and notes for a document", ArgsUsage: "<id>", Action: viewAction},
			{
				Name:      "notes",
				Usage:     "Replace the notes on a document",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "set", Required: true, Usage: "New notes text"},
				},
				Action: notesAction,
			},
			{Name: "download", Usage: "Download the original file", ArgsUsage: "<id>", Action: downloadAction},
			{
				Name:      "delete",
				Usage:     "Delete a document",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
				},
				Action: deleteAction,
			},
			{Name: "upload", Usage: "Upload documents (pdf, jpg, jpeg, png)", ArgsUsage: "<files...>", Action: uploadAction},
			{Name: "search", Usage: "Search the local document cache", ArgsUsage: "<query>", Action: searchAction},
			{Name: "watch", Usage: "Watch the scan inbox and upload new documents", Action: watchAction},
			{Name: "mcp", Usage: "Serve document tools over MCP stdio", Action: mcpAction},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
