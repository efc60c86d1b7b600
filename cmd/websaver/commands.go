package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/gobwas/glob"

	"github.com/entrhq/websaver/pkg/saved"
)

const importFailedText = "Failed to import tabs. Please check the file format."

func (a *app) add(ctx context.Context, out io.Writer, flags *Flags) error {
	c := saved.Candidate{
		URL:   strings.TrimSpace(flags.Add),
		Title: flags.Title,
		Notes: flags.Notes,
		Tags:  flags.Tags,
	}
	if strings.TrimSpace(c.Title) == "" {
		c.DefaultTitle = a.lookupTitle(ctx, c.URL)
	}

	item, added, err := a.store.Add(ctx, c)
	if err != nil {
		return err
	}
	if !added {
		fmt.Fprintf(out, "Already saved: %s\n", item.URL)
		return nil
	}
	fmt.Fprintf(out, "Saved: %s (%s)\n", item.URL, item.Title)
	return nil
}

// lookupTitle returns the page's own title, or the url when it cannot be
// fetched.
func (a *app) lookupTitle(ctx context.Context, url string) string {
	if a.titles == nil || url == "" {
		return url
	}
	title, err := a.titles.Fetch(ctx, url)
	if err != nil {
		a.log.Warnf("title lookup for %s failed: %v", url, err)
		return url
	}
	return title
}

func (a *app) list(ctx context.Context, out io.Writer, filter, urlGlob string) error {
	items, err := a.store.List(ctx, filter)
	if err != nil {
		return err
	}

	if urlGlob != "" {
		g, err := glob.Compile(urlGlob)
		if err != nil {
			return fmt.Errorf("invalid -url-glob pattern %q: %w", urlGlob, err)
		}
		kept := items[:0]
		for _, it := range items {
			if g.Match(it.URL) {
				kept = append(kept, it)
			}
		}
		items = kept
	}

	if len(items) == 0 {
		fmt.Fprintln(out, "No saved tabs found.")
		return nil
	}
	for i, it := range items {
		if i > 0 {
			fmt.Fprintln(out)
		}
		writeItem(out, it)
	}
	return nil
}

func writeItem(out io.Writer, it saved.SavedItem) {
	fmt.Fprintln(out, it.Title)
	fmt.Fprintf(out, "  URL: %s\n", it.URL)
	if it.Notes != "" {
		fmt.Fprintf(out, "  Notes: %s\n", it.Notes)
	}
	if len(it.Tags) > 0 {
		fmt.Fprintf(out, "  Tags: %s\n", strings.Join(it.Tags, ", "))
	}
	fmt.Fprintf(out, "  Saved: %s\n", it.SavedTime().Local().Format("2006-01-02 15:04:05"))
}

func (a *app) delete(ctx context.Context, out io.Writer, url string) error {
	if err := a.store.Delete(ctx, url); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted: %s\n", url)
	return nil
}

func (a *app) export(ctx context.Context, out io.Writer, path string, color bool) error {
	data, err := a.store.Export(ctx)
	if err != nil {
		return err
	}

	if path != "-" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(out, "Exported to %s\n", path)
		return nil
	}

	if color {
		if err := quick.Highlight(out, string(data), "json", "terminal256", "monokai"); err != nil {
			return fmt.Errorf("highlight export: %w", err)
		}
		fmt.Fprintln(out)
		return nil
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func (a *app) importFile(ctx context.Context, out io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}

	merged, err := a.store.ImportMerge(ctx, data)
	if errors.Is(err, saved.ErrDataFormat) {
		a.log.Warnf("import of %s rejected: %v", path, err)
		return errors.New(importFailedText)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %s: %d saved tabs\n", path, len(merged))
	return nil
}
