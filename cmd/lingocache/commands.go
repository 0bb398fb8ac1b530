package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	lc "github.com/unkn0wn-root/lingocache"
	"github.com/unkn0wn-root/lingocache/batch"
	"github.com/unkn0wn-root/lingocache/config"
	"github.com/unkn0wn-root/lingocache/service"
)

type cli struct {
	app      *app
	envFiles []string
	stats    bool
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

func (c *cli) root() *cobra.Command {
	root := &cobra.Command{
		Use:           "lingocache",
		Short:         "Cached translation, detection and article processing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c.app != nil {
				return nil
			}
			cfg, err := config.Load(c.envFiles...)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if c.stats && c.app != nil {
				printStats(cmd.OutOrStdout(), c.app.store)
			}
		},
	}
	root.PersistentFlags().StringSliceVar(&c.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	root.PersistentFlags().BoolVar(&c.stats, "stats", false, "print cache statistics on exit")

	root.AddCommand(
		c.translateCmd(),
		c.batchCmd(),
		c.detectCmd(),
		c.summarizeCmd(),
		c.rewriteCmd(),
		c.vocabCmd(),
		c.articleCmd(),
		c.cacheCmd(),
		c.statusCmd(),
	)
	return root
}

func (c *cli) translateCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate text (stdin when no arguments)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}
			out, err := c.app.fc.Translate(cmd.Context(), text, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "auto", "source language (BCP-47) or auto")
	cmd.Flags().StringVar(&to, "to", "en", "target language (BCP-47)")
	return cmd
}

func (c *cli) batchCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "batch [text...]",
		Short: "Translate up to 20 short strings in one request",
		Long:  "Each argument, or each stdin line when there are none, is one item. A tab separates an item from its context.",
		RunE: func(cmd *cobra.Command, args []string) error {
			lines := args
			if len(lines) == 0 {
				var err error
				if lines, err = readLines(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			items := make([]batch.Item, len(lines))
			for i, l := range lines {
				text, hint, _ := strings.Cut(l, "\t")
				items[i] = batch.Item{Text: text, Context: hint}
			}
			res, err := c.app.batch.BatchTranslate(cmd.Context(), items, from, to)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			failed := 0
			for _, r := range res {
				switch {
				case r.Err != nil:
					failed++
					fmt.Fprintf(w, "%s\t!\t%v\n", r.Original, r.Err)
				case r.Cached:
					fmt.Fprintf(w, "%s\t=\t%s\n", r.Original, r.Translation)
				default:
					fmt.Fprintf(w, "%s\t→\t%s\n", r.Original, r.Translation)
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d items failed", failed, len(res))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "auto", "source language (BCP-47) or auto")
	cmd.Flags().StringVar(&to, "to", "en", "target language (BCP-47)")
	return cmd
}

func (c *cli) detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [text...]",
		Short: "Detect the language of text",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}
			code, err := c.app.fc.DetectLanguage(cmd.Context(), text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
}

func (c *cli) summarizeCmd() *cobra.Command {
	var req service.SummarizeRequest
	cmd := &cobra.Command{
		Use:   "summarize [text...]",
		Short: "Summarize an article",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}
			req.Text = text
			out, err := c.app.fc.Summarize(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Language, "lang", "", "language of the summary")
	cmd.Flags().StringVar(&req.Length, "length", "short", "short, medium or long")
	return cmd
}

func (c *cli) rewriteCmd() *cobra.Command {
	var req service.RewriteRequest
	cmd := &cobra.Command{
		Use:   "rewrite [text...]",
		Short: "Rewrite text for a CEFR level",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}
			req.Text = text
			out, err := c.app.fc.Rewrite(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Language, "lang", "", "language of the text")
	cmd.Flags().StringVar(&req.Level, "level", "B1", "CEFR level A1-C2")
	return cmd
}

func (c *cli) vocabCmd() *cobra.Command {
	var req service.VocabularyRequest
	cmd := &cobra.Command{
		Use:   "vocab [text...]",
		Short: "List words worth learning, as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}
			req.Text = text
			items, err := c.app.fc.AnalyzeVocabulary(cmd.Context(), req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		},
	}
	cmd.Flags().StringVar(&req.Language, "lang", "", "language of the text")
	cmd.Flags().StringVar(&req.TargetLanguage, "target", "en", "language of the translations")
	cmd.Flags().StringVar(&req.Level, "level", "B1", "learner's CEFR level")
	return cmd
}

func (c *cli) articleCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "article", Short: "Save and show reading texts"}

	var title, lang string
	save := &cobra.Command{
		Use:   "save URL [text...]",
		Short: "Store an article (text from stdin when omitted)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args[1:])
			if err != nil {
				return err
			}
			art := Article{URL: args[0], Title: title, Text: text, Language: lang, SavedAt: time.Now().UTC()}
			if err := c.app.articles.Set(cmd.Context(), lc.ArticleKey(art.URL), art, 0); err != nil {
				return fmt.Errorf("save article: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d chars)\n", art.URL, len([]rune(art.Text)))
			return nil
		},
	}
	save.Flags().StringVar(&title, "title", "", "article title")
	save.Flags().StringVar(&lang, "lang", "", "article language")

	show := &cobra.Command{
		Use:   "show URL",
		Short: "Print a stored article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			art, ok := c.app.articles.Get(cmd.Context(), lc.ArticleKey(args[0]))
			if !ok {
				return fmt.Errorf("article %s not cached", args[0])
			}
			out := cmd.OutOrStdout()
			if art.Title != "" {
				fmt.Fprintf(out, "# %s\n", art.Title)
			}
			fmt.Fprintf(out, "%s (saved %s)\n\n%s\n", art.URL, art.SavedAt.Format(time.RFC3339), art.Text)
			return nil
		},
	}
	cmd.AddCommand(save, show)
	return cmd
}

func (c *cli) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Inspect and clear the cache"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Per-namespace statistics",
			RunE: func(cmd *cobra.Command, _ []string) error {
				printStats(cmd.OutOrStdout(), c.app.store)
				return nil
			},
		},
		&cobra.Command{
			Use:   "usage",
			Short: "Bytes held by the persistence backend",
			RunE: func(cmd *cobra.Command, _ []string) error {
				u, err := c.app.store.Usage(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "in use: %d bytes, quota: %d bytes\n", u.BytesInUse, u.Quota)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear [namespace...]",
			Short: "Clear namespaces (all when none given)",
			RunE: func(cmd *cobra.Command, args []string) error {
				known := map[lc.Namespace]bool{}
				for _, ns := range c.app.store.Namespaces() {
					known[ns] = true
				}
				nss := make([]lc.Namespace, len(args))
				for i, a := range args {
					if !known[lc.Namespace(a)] {
						return fmt.Errorf("unknown namespace %q", a)
					}
					nss[i] = lc.Namespace(a)
				}
				c.app.store.Clear(cmd.Context(), nss...)
				return nil
			},
		},
	)
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe every AI service and print its availability",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.tracker.Refresh(cmd.Context(), true); err != nil {
				return err
			}
			snap := c.app.tracker.Snapshot()
			ids := make([]string, 0, len(snap))
			for id := range snap {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				state := "unavailable"
				if snap[id].Available {
					state = "available"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, state)
			}
			return nil
		},
	}
}

func printStats(w io.Writer, s *lc.Store) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAMESPACE\tENTRIES\tHITS\tMISSES\tHIT RATE\tEVICTIONS\tEXPIRATIONS")
	for _, ns := range s.Namespaces() {
		st := s.Stats(ns)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.2f\t%d\t%d\n", ns, st.Entries, st.Hits, st.Misses, st.HitRate, st.Evictions, st.Expirations)
	}
	_ = tw.Flush()
}

func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if l := strings.TrimRight(sc.Text(), "\r"); strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out, sc.Err()
}
