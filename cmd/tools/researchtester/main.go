package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/tidwall/gjson"

	"github.com/zhouzirui/z-research/backend/internal/model/chat"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	baseURL := flag.String("url", "http://localhost:8080", "后端地址")
	question := flag.String("q", "", "要研究的问题")
	apiKey := flag.String("key", os.Getenv("RESEARCH_API_KEY"), "Bearer 密钥，默认读取 RESEARCH_API_KEY")
	timeout := flag.Duration("timeout", 3*time.Minute, "请求超时时间")
	noColor := flag.Bool("no-color", false, "关闭彩色输出")

	flag.Parse()

	if strings.TrimSpace(*question) == "" {
		flag.Usage()
		log.Fatal("请通过 -q 指定问题")
	}
	if *noColor {
		color.Disable()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	messages, err := complete(ctx, strings.TrimRight(*baseURL, "/"), *apiKey, *question)
	if err != nil {
		log.Fatalf("请求失败: %v", err)
	}

	color.Cyan.Printf("完成，用时 %s，共 %d 条消息\n\n", time.Since(start).Round(time.Millisecond), len(messages))
	printMessages(messages)
}

func complete(ctx context.Context, baseURL, apiKey, question string) ([]chat.Message, error) {
	payload, err := json.Marshal(map[string]any{
		"messages": []chat.Message{{Role: chat.RoleUser, Content: question, Type: chat.TypeInput}},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, gjson.GetBytes(body, "error").String())
	}

	var out struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Messages, nil
}

func printMessages(messages []chat.Message) {
	answered := false
	for _, msg := range messages {
		switch msg.Type {
		case chat.TypeTool:
			color.Yellow.Printf("[tool:%s] ", msg.Name)
			fmt.Println(toolSummary(msg))
		case chat.TypeAnswer:
			answered = true
			color.Green.Println("\n== 回答 ==")
			fmt.Println(msg.Content)
		case chat.TypeRelated:
			printRelated(msg.Content)
		}
	}
	if !answered {
		color.Red.Println("没有生成回答，请查看服务端日志")
	}
}

func toolSummary(msg chat.Message) string {
	parsed := gjson.Parse(msg.Content)
	if errMsg := parsed.Get("error"); errMsg.Exists() {
		return "error: " + errMsg.String()
	}
	urls := parsed.Get("results.#.url").Array()
	if len(urls) == 0 {
		return fmt.Sprintf("%d bytes", len(msg.Content))
	}
	parts := make([]string, 0, len(urls))
	for _, u := range urls {
		parts = append(parts, u.String())
	}
	return strings.Join(parts, ", ")
}

func printRelated(content string) {
	queries := gjson.Get(content, "items.#.query").Array()
	if len(queries) == 0 {
		return
	}

	color.Magenta.Println("\n== 相关问题 ==")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Query"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for i, q := range queries {
		table.Append([]string{fmt.Sprint(i + 1), q.String()})
	}
	table.Render()
}
