package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"nudge/internal/chunker"
	"nudge/internal/config"
	"nudge/internal/extract"
	"nudge/internal/index"
	"nudge/internal/llm"
	"nudge/internal/llm/azure"
	"nudge/internal/llm/embed"
	"nudge/internal/rag"
	"nudge/internal/server"
	"nudge/internal/store"
	"nudge/internal/tokenizer"
	"nudge/internal/version"
)

func main() {
	_ = godotenv.Load()
	if err := config.LoadAndApply(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "serve":
		fs := flag.NewFlagSet("serve", flag.ExitOnError)
		addr := fs.String("addr", config.Addr(), "listen address")
		_ = fs.Parse(os.Args[2:])
		if err := server.Run(*addr); err != nil {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	case "ingest":
		ingestCmd(os.Args[2:])
	case "rebuild":
		rebuildCmd(os.Args[2:])
	case "ask":
		askCmd(os.Args[2:])
	case "version":
		fmt.Println(version.String())
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("nudge - retrieval-augmented design mentor")
	fmt.Println("usage:")
	fmt.Println("  nudge serve [--addr :8090]")
	fmt.Println("  nudge ingest --input doc.pdf [--source name] [--max-tokens 512] [--overlap 50]")
	fmt.Println("  nudge rebuild")
	fmt.Println("  nudge ask [--k 3] [--scratchpad notes] \"<query>\"")
	fmt.Println("  nudge version")
}

func newEmbedder() llm.Embedder {
	if config.EmbedderKind() == "simple" {
		return embed.NewSimple(0)
	}
	return embed.NewOpenAIFromEnv()
}

func newManager(emb llm.Embedder) (*index.Manager, error) {
	persist, err := index.NewPersister(config.IndexBackend(), config.IndexDir())
	if err != nil {
		return nil, err
	}
	return index.NewManager(store.New(config.ChunksDir()), emb, persist, nil), nil
}

func ingestCmd(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	input := fs.String("input", "", "document to ingest (.pdf or plain text)")
	source := fs.String("source", "", "source identifier (defaults to the file name)")
	maxTokens := fs.Int("max-tokens", config.MaxTokens(), "chunk window size in tokens")
	overlap := fs.Int("overlap", config.Overlap(), "tokens shared by consecutive chunks")
	_ = fs.Parse(args)
	if *input == "" {
		fatal("ingest: --input is required")
	}
	if *source == "" {
		*source = filepath.Base(*input)
	}

	text, err := extract.Text(*input)
	if err != nil {
		fatal("ingest: %v", err)
	}
	tok, err := tokenizer.New(config.TokenizerKind())
	if err != nil {
		fatal("ingest: %v", err)
	}
	chunks, err := chunker.Split(tok, text, *source, *maxTokens, *overlap)
	if err != nil {
		fatal("ingest: %v", err)
	}
	if len(chunks) == 0 {
		fatal("ingest: %s contains no text", *input)
	}
	if err := store.New(config.ChunksDir()).WriteSource(*source, chunks); err != nil {
		fatal("ingest: %v", err)
	}
	fmt.Printf("ingested %s: %d chunks (tokenizer=%s)\n", *source, len(chunks), tok.Name())
	fmt.Println("run `nudge rebuild` to refresh the index")
}

func rebuildCmd(args []string) {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	_ = fs.Parse(args)

	mgr, err := newManager(newEmbedder())
	if err != nil {
		fatal("rebuild: %v", err)
	}
	if err := mgr.Rebuild(context.Background()); err != nil {
		fatal("rebuild: %v", err)
	}
	ix, _ := mgr.Get()
	fmt.Printf("index rebuilt: %d records, dim=%d, model=%s\n", len(ix.Records), ix.Dimension, ix.Model)
}

func askCmd(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	k := fs.Int("k", 3, "number of chunks to retrieve")
	scratchpad := fs.String("scratchpad", "", "free-form notes passed to the prompt")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		fatal("ask: query required")
	}
	query := strings.Join(fs.Args(), " ")

	emb := newEmbedder()
	mgr, err := newManager(emb)
	if err != nil {
		fatal("ask: %v", err)
	}
	if err := mgr.BuildOrLoad(context.Background()); err != nil {
		fatal("ask: %v", err)
	}
	chat, err := azure.NewFromEnv()
	if err != nil {
		fatal("ask: %v", err)
	}
	svc := rag.NewService(mgr, emb, chat)
	result, err := svc.GenerateSuggestion(context.Background(), query, nil, *scratchpad, *k)
	if err != nil {
		fatal("ask: %v", err)
	}

	fmt.Println(result.Suggestion)
	if len(result.References) > 0 {
		fmt.Println("\nreferences:")
		for i, ref := range result.References {
			fmt.Printf("  [%d] %s (chunk %d): %s\n", i+1, ref.Source, ref.ChunkID, ref.Preview)
		}
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
