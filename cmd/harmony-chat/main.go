package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/kelseyhightower/envconfig"

	harmony "github.com/euforicio/harmony-client"
	"github.com/euforicio/harmony-client/openai"
)

// env holds the process-wide defaults; resolved here and passed to the core
// explicitly, never read by the client itself.
type env struct {
	APIKey  string `envconfig:"HARMONY_API_KEY"`
	BaseURL string `envconfig:"HARMONY_BASE_URL"`
	Model   string `envconfig:"HARMONY_MODEL"`
}

func die(err error) { fmt.Fprintln(os.Stderr, err); os.Exit(1) }

func main() {
	if len(os.Args) < 2 {
		fmt.Println("harmony-chat [chat|render-completion|parse]")
		return
	}
	var cfg env
	if err := envconfig.Process("", &cfg); err != nil {
		die(err)
	}
	switch os.Args[1] {
	case "chat":
		fs := flag.NewFlagSet("chat", flag.ExitOnError)
		baseURL := fs.String("base-url", cfg.BaseURL, "OpenAI-compatible base URL")
		model := fs.String("model", cfg.Model, "model name")
		harmonyMode := fs.Bool("harmony", false, "use the raw-completion Harmony path")
		maxTokens := fs.Int("max-tokens", 0, "completion token budget (0 = server default)")
		debug := fs.Bool("debug", false, "log requests to stderr")
		_ = fs.Parse(os.Args[2:])
		prompt := fs.Arg(0)
		if prompt == "" {
			die(fmt.Errorf("usage: harmony-chat chat [flags] \"prompt\""))
		}
		client := openai.NewClient(*baseURL, cfg.APIKey, *model)
		if *debug {
			client.Debug = log.New(os.Stderr, "", log.LstdFlags)
		}
		if err := runChat(client, prompt, *harmonyMode, *maxTokens); err != nil {
			die(err)
		}
	case "render-completion":
		fs := flag.NewFlagSet("render-completion", flag.ExitOnError)
		role := fs.String("role", "assistant", "next role")
		autoDrop := fs.Bool("auto-drop", true, "auto drop analysis before final")
		_ = fs.Parse(os.Args[2:])
		var convo harmony.Conversation
		if err := json.NewDecoder(os.Stdin).Decode(&convo); err != nil {
			die(err)
		}
		rcfg := &harmony.RenderConversationConfig{AutoDropAnalysis: *autoDrop}
		fmt.Print(harmony.RenderConversationForCompletion(convo, harmony.Role(*role), rcfg))
	case "parse":
		fs := flag.NewFlagSet("parse", flag.ExitOnError)
		role := fs.String("role", "", "role hint for the first header (empty = none)")
		_ = fs.Parse(os.Args[2:])
		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			die(err)
		}
		var rptr *harmony.Role
		if *role != "" {
			rr := harmony.Role(*role)
			rptr = &rr
		}
		msgs, err := harmony.ParseMessages(string(text), rptr)
		if err != nil {
			die(err)
		}
		_ = json.NewEncoder(os.Stdout).Encode(msgs)
	default:
		fmt.Fprintln(os.Stderr, "unknown command")
		os.Exit(2)
	}
}

func runChat(client *openai.Client, prompt string, harmonyMode bool, maxTokens int) error {
	ctx := context.Background()
	if harmonyMode {
		var conv harmony.Conversation
		conv.Append(harmony.Message{Role: harmony.RoleUser, Content: prompt})
		stream, err := client.StreamHarmonyConversation(ctx, conv, maxTokens)
		if err != nil {
			return err
		}
		defer stream.Close()
		for stream.Next() {
			ev := stream.Current()
			if ev.Content != "" && ev.Channel != harmony.ChannelAnalysis {
				fmt.Print(ev.Content)
			}
			if ev.FinishReason == openai.FinishToolCalls {
				fmt.Println()
				return json.NewEncoder(os.Stdout).Encode(stream.ToolCalls())
			}
		}
		fmt.Println()
		return stream.Err()
	}

	req := openai.ChatCompletionRequest{
		Messages:  []openai.ChatMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	}
	stream, err := client.StreamChatCompletion(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()
	for stream.Next() {
		ev := stream.Current()
		if ev.Content != "" {
			fmt.Print(ev.Content)
		}
		if ev.FinishReason == openai.FinishToolCalls {
			fmt.Println()
			return json.NewEncoder(os.Stdout).Encode(stream.ToolCalls())
		}
	}
	fmt.Println()
	return stream.Err()
}
