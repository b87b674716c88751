package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cory-johannsen/scanfighter/internal/game/fighter"
	"github.com/cory-johannsen/scanfighter/internal/leaderboard"
	"github.com/cory-johannsen/scanfighter/internal/scan"
)

var errNoScan = errors.New("no barcode scanned")

func runCreate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "fighter name, 1-24 characters (required)")
	barcode := fs.String("barcode", "", "barcode to generate from; empty reads one scan from stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	code := scan.Normalize(*barcode)
	if code == "" {
		fmt.Println("Scan a barcode (or type one and press Enter)...")
		var err error
		if code, err = scanOnce(ctx, a, os.Stdin); err != nil {
			return err
		}
	}
	if !scan.CheckDigitValid(code) {
		fmt.Printf("note: %q is not a valid UPC/EAN code; generating anyway\n", code)
	}

	f, err := a.roster.Create(ctx, *name, code)
	if err != nil {
		return err
	}
	printFighter(os.Stdout, f, a.cfg.Battle.SignatureLength)
	return nil
}

// scanOnce runs a single scan session over r and returns the first code.
func scanOnce(ctx context.Context, a *app, r io.Reader) (string, error) {
	codes := make(chan string, 1)
	sess := scan.NewSession(scan.NewLineScanner(r), a.logger)
	sess.Start(ctx, func(code string) { codes <- code })
	defer sess.Stop()

	select {
	case <-sess.Done():
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case code := <-codes:
		return code, nil
	default:
		return "", errNoScan
	}
}

func runList(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	fighters, err := a.roster.Leaderboard(ctx)
	if err != nil {
		return err
	}
	printLeaderboard(os.Stdout, fighters)
	return nil
}

func runShow(ctx context.Context, a *app, args []string) error {
	id, err := idArg("show", args)
	if err != nil {
		return err
	}
	f, err := a.roster.Get(ctx, id)
	if err != nil {
		return err
	}
	printFighter(os.Stdout, f, a.cfg.Battle.SignatureLength)
	return nil
}

func runDelete(ctx context.Context, a *app, args []string) error {
	id, err := idArg("delete", args)
	if err != nil {
		return err
	}
	if err := a.roster.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Printf("deleted fighter #%d\n", id)
	return nil
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	updates, err := a.roster.Watch(ctx)
	if err != nil {
		return err
	}
	for fighters := range updates {
		fmt.Println()
		printLeaderboard(os.Stdout, fighters)
	}
	return nil
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "", "output file; empty writes to stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fighters, err := a.roster.Leaderboard(ctx)
	if err != nil {
		return err
	}

	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}
	return leaderboard.WriteCSV(w, leaderboard.Rank(fighters))
}

// idArg parses a fighter ID given either as -id or as the first argument.
func idArg(name string, args []string) (int64, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	id := fs.Int64("id", 0, "fighter ID")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if *id == 0 && fs.NArg() > 0 {
		v, err := strconv.ParseInt(fs.Arg(0), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing fighter id %q: %w", fs.Arg(0), err)
		}
		*id = v
	}
	if *id <= 0 {
		return 0, fmt.Errorf("%s: a positive fighter id is required", name)
	}
	return *id, nil
}

func printFighter(w io.Writer, f *fighter.Fighter, signatureLen int) {
	colors, notes := fighter.SignatureN(f.Barcode, signatureLen)
	hex := make([]string, len(colors))
	hz := make([]string, len(notes))
	for i := range colors {
		hex[i] = colors[i].Hex()
		hz[i] = strconv.FormatFloat(notes[i], 'f', 2, 64)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#%d\t%s\n", f.ID, f.Name)
	fmt.Fprintf(tw, "barcode\t%s\n", f.Barcode)
	fmt.Fprintf(tw, "health\t%d\n", f.Health)
	fmt.Fprintf(tw, "attack\t%d\n", f.Attack)
	fmt.Fprintf(tw, "defense\t%d\n", f.Defense)
	fmt.Fprintf(tw, "speed\t%d\n", f.Speed)
	fmt.Fprintf(tw, "luck\t%d\n", f.Luck)
	fmt.Fprintf(tw, "skill\t%d\n", f.Skill)
	fmt.Fprintf(tw, "special\t%s\n", f.SpecialMove.DisplayName())
	fmt.Fprintf(tw, "record\t%d-%d\n", f.Wins, f.Losses)
	fmt.Fprintf(tw, "colours\t%s\n", strings.Join(hex, " "))
	fmt.Fprintf(tw, "notes\t%s Hz\n", strings.Join(hz, " "))
	tw.Flush()
}

func printLeaderboard(w io.Writer, fighters []*fighter.Fighter) {
	if len(fighters) == 0 {
		fmt.Fprintln(w, "no fighters yet; scan a barcode with 'scanfighter create'")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tID\tNAME\tSPECIAL\tW\tL\tWIN%")
	for _, r := range leaderboard.Rank(fighters) {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\t%d\t%.0f\n",
			r.Rank, r.ID, r.Name, r.SpecialMove, r.Wins, r.Losses, r.WinRate*100)
	}
	tw.Flush()
}
