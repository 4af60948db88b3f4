// Command fls is a small shell over a configured filicious adapter:
// list, read, write, stat, move and delete files on whatever backend the
// environment selects.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/filicious/filicious"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	_ "github.com/filicious/filicious/adapter/local"
	_ "github.com/filicious/filicious/adapter/memory"
	_ "github.com/filicious/filicious/adapter/sftp"
)

var (
	ExitCode = 0

	verbose = flag.Bool("v", false, "enable debug logging")
)

func setupLogging() {
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}),
	))
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: fls [-v] <command> [args]

commands:
  ls <path>            list directory entries
  cat <path>           print file contents
  write <path>         write stdin to a file
  stat <path>          print file metadata
  mkdir <path>         create a directory (with parents)
  rm [-r] <path>       delete a file or directory
  mv <src> <dst>       move a file or directory
  cp <src> <dst>       copy a file
  put <local> <path>   upload a local file
  get <path> <local>   download to a local file

The backend is selected through FILICIOUS_* environment variables,
optionally loaded from a .env file in the working directory.
`)
}

func main() {
	defer func() {
		os.Exit(ExitCode)
	}()

	flag.Usage = usage
	flag.Parse()
	setupLogging()

	// Missing .env is fine; the environment alone may be enough.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file.", "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, flag.Args()); err != nil {
		slog.Error("Command failed.", "err", err)
		ExitCode = 1
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("no command given")
	}

	cfg, err := filicious.GetConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	adapter, err := filicious.NewAdapter(cfg)
	if err != nil {
		return fmt.Errorf("construct adapter: %w", err)
	}
	defer func() {
		if closer, ok := adapter.(filicious.Closer); ok {
			closer.Close()
		}
	}()

	tree := filicious.NewTree(slog.Default())
	if err := tree.Mount("/", adapter); err != nil {
		return err
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "ls":
		return cmdList(ctx, tree, rest)
	case "cat":
		return cmdCat(ctx, tree, rest)
	case "write":
		return cmdWrite(ctx, tree, rest)
	case "stat":
		return cmdStat(ctx, tree, rest)
	case "mkdir":
		return cmdMkdir(ctx, tree, rest)
	case "rm":
		return cmdRemove(ctx, tree, rest)
	case "mv":
		return cmdMove(ctx, tree, rest)
	case "cp":
		return cmdCopy(ctx, tree, rest)
	case "put":
		return cmdPut(ctx, tree, rest)
	case "get":
		return cmdGet(ctx, tree, rest)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func one(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one path argument")
	}
	return args[0], nil
}

func two(args []string) (string, string, error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("expected source and destination arguments")
	}
	return args[0], args[1], nil
}

func cmdList(ctx context.Context, tree *filicious.Tree, args []string) error {
	p, err := one(args)
	if err != nil {
		return err
	}
	names, err := tree.List(ctx, p)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func cmdCat(ctx context.Context, tree *filicious.Tree, args []string) error {
	p, err := one(args)
	if err != nil {
		return err
	}
	data, err := tree.ReadFile(ctx, p)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func cmdWrite(ctx context.Context, tree *filicious.Tree, args []string) error {
	p, err := one(args)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	return tree.WriteFile(ctx, p, data)
}

func cmdStat(ctx context.Context, tree *filicious.Tree, args []string) error {
	p, err := one(args)
	if err != nil {
		return err
	}
	st, err := tree.Stat(ctx, p)
	if err != nil {
		return err
	}
	fmt.Printf("type:  %s\n", st.Type)
	fmt.Printf("size:  %d\n", st.Size)
	fmt.Printf("mode:  %s\n", st.Mode)
	fmt.Printf("mtime: %s\n", st.MTime.Format(time.RFC3339))
	fmt.Printf("owner: %d:%d\n", st.UID, st.GID)
	return nil
}

func cmdMkdir(ctx context.Context, tree *filicious.Tree, args []string) error {
	p, err := one(args)
	if err != nil {
		return err
	}
	return tree.CreateDir(ctx, p, true)
}

func cmdRemove(ctx context.Context, tree *filicious.Tree, args []string) error {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	recursive := fs.Bool("r", false, "delete directories recursively")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := one(fs.Args())
	if err != nil {
		return err
	}
	return tree.Delete(ctx, p, *recursive)
}

func cmdMove(ctx context.Context, tree *filicious.Tree, args []string) error {
	src, dst, err := two(args)
	if err != nil {
		return err
	}
	return tree.Move(ctx, src, dst)
}

func cmdCopy(ctx context.Context, tree *filicious.Tree, args []string) error {
	src, dst, err := two(args)
	if err != nil {
		return err
	}
	return tree.Copy(ctx, src, dst)
}

func progress(transferred, total int64) {
	if total > 0 {
		fmt.Fprintf(os.Stderr, "\r%d/%d bytes", transferred, total)
	} else {
		fmt.Fprintf(os.Stderr, "\r%d bytes", transferred)
	}
}

func cmdPut(ctx context.Context, tree *filicious.Tree, args []string) error {
	local, remote, err := two(args)
	if err != nil {
		return err
	}
	pn, err := tree.Resolve(remote)
	if err != nil {
		return err
	}
	if err := filicious.UploadFile(ctx, pn.Adapter(), pn.Local(), local, progress); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr)
	return nil
}

func cmdGet(ctx context.Context, tree *filicious.Tree, args []string) error {
	remote, local, err := two(args)
	if err != nil {
		return err
	}
	pn, err := tree.Resolve(remote)
	if err != nil {
		return err
	}
	if err := filicious.DownloadFile(ctx, pn.Adapter(), pn.Local(), local, progress); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr)
	return nil
}
