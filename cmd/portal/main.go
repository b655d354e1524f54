package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/contractportal/portal/internal/client"
	"github.com/contractportal/portal/internal/config"
	"github.com/contractportal/portal/internal/format"
	"github.com/contractportal/portal/internal/portal"
	"github.com/joho/godotenv"
)

const usage = `usage: portal <command> [flags]

commands:
  list      [-search term] [-sort date-desc|date-asc|name-asc|name-desc]
  upload    <file.zip>
  delete    [-yes] <id>
  download  [-o path] <id>
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.Client.APIURL, client.WithHTTPClient(&http.Client{Timeout: cfg.Client.Timeout}))
	app := portal.NewApp(api)
	defer app.Close()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "list":
		err = runList(ctx, app, args)
	case "upload":
		err = runUpload(ctx, app, args)
	case "delete":
		err = runDelete(ctx, app, args)
	case "download":
		err = runDownload(ctx, api, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	printNotifications(app)
	if err != nil {
		os.Exit(1)
	}
}

func runList(ctx context.Context, app *portal.App, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	search := fs.String("search", "", "case-insensitive name filter")
	sortFlag := fs.String("sort", string(portal.DefaultSort), "sort order")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mode, err := portal.ParseSortMode(*sortFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	if err := app.Load(ctx); err != nil {
		return err
	}
	app.SetSearch(*search)
	app.SetSort(mode)

	visible := app.Visible()
	if len(visible) == 0 {
		if *search != "" {
			fmt.Println("No files match your search")
		} else {
			fmt.Println("No files uploaded yet")
		}
		return nil
	}
	writeTable(os.Stdout, visible)
	return nil
}

func runUpload(ctx context.Context, app *portal.App, args []string) error {
	if len(args) != 1 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("upload takes exactly one file")
	}

	f, err := fileFromPath(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	widget := app.NewUploadWidget()
	if err := widget.Select(f); err != nil {
		return err
	}

	fmt.Printf("Uploading %s (%s)...\n", f.Name, format.Bytes(f.Size))
	stored, err := widget.Upload(ctx)
	if err != nil {
		return err
	}
	writeTable(os.Stdout, []client.Contract{stored})
	return nil
}

func runDelete(ctx context.Context, app *portal.App, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("delete takes exactly one id")
	}

	if err := app.Load(ctx); err != nil {
		return err
	}
	if err := app.RequestDelete(fs.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", fs.Arg(0), err)
		return err
	}

	target, _ := app.PendingDelete()
	if !*yes && !confirm(os.Stdin, os.Stdout, fmt.Sprintf("Delete %q? This cannot be undone. [y/N] ", target.Name)) {
		app.CancelDelete()
		fmt.Println("Cancelled")
		return nil
	}
	return app.ConfirmDelete(ctx)
}

func runDownload(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	out := fs.String("o", "", "output path (defaults to the stored name)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("download takes exactly one id")
	}
	id := fs.Arg(0)

	path := *out
	if path == "" {
		c, err := api.Get(ctx, id)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return err
		}
		path = filepath.Base(c.Name)
	}

	dst, err := os.Create(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	n, err := api.Download(ctx, id, dst)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	fmt.Printf("Saved %s (%s)\n", path, format.Bytes(n))
	return nil
}

func fileFromPath(path string) (portal.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return portal.FileInfo{}, err
	}
	if info.IsDir() {
		return portal.FileInfo{}, fmt.Errorf("%s is a directory", path)
	}

	contentType := ""
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		contentType = "application/zip"
	}
	return portal.FileInfo{
		Name: filepath.Base(path),
		Type: contentType,
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

func writeTable(w io.Writer, files []client.Contract) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tUPLOADED\tURL")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			f.ID, f.Name, format.Bytes(f.Size), f.UploadedAt.Local().Format("2006-01-02 15:04"), f.URL)
	}
	_ = tw.Flush()
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func printNotifications(app *portal.App) {
	for _, n := range app.Notifications() {
		if n.Kind == portal.KindError {
			fmt.Fprintf(os.Stderr, "error: %s\n", n.Message)
			continue
		}
		fmt.Println(n.Message)
	}
}
