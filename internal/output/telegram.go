package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rsilvagit/go-empleo/internal/format"
	"github.com/rsilvagit/go-empleo/internal/model"
)

const (
	telegramAPI   = "https://api.telegram.org"
	telegramLimit = 3800
)

// TelegramWriter sends jobs to a Telegram chat via the Bot API.
type TelegramWriter struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

func NewTelegramWriter(token, chatID string) *TelegramWriter {
	return &TelegramWriter{
		token:   token,
		chatID:  chatID,
		baseURL: telegramAPI,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the writer at another Bot API host.
func (tw *TelegramWriter) WithBaseURL(u string) *TelegramWriter {
	tw.baseURL = strings.TrimRight(u, "/")
	return tw
}

func (tw *TelegramWriter) WriteJobs(jobs []model.JobPosting) error {
	if len(jobs) == 0 {
		return tw.send(escapeMarkdown(noResults))
	}

	entries := make([]string, len(jobs))
	for i, j := range jobs {
		entries[i] = formatTelegramJob(i+1, j)
	}
	header := fmt.Sprintf("*%d empleo\\(s\\) encontrado\\(s\\):*\n\n", len(jobs))

	for _, c := range chunk(header, entries, telegramLimit) {
		if err := tw.send(c); err != nil {
			return err
		}
	}
	return nil
}

func formatTelegramJob(n int, j model.JobPosting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%d\\. %s*\n", n, escapeMarkdown(j.Title))
	fmt.Fprintf(&b, "Empresa: %s\n", escapeMarkdown(j.Company))
	fmt.Fprintf(&b, "Ubicación: %s\n", escapeMarkdown(location(j)))
	if s := format.SalaryOf(j.Salary); s != "" {
		fmt.Fprintf(&b, "Salario: %s\n", escapeMarkdown(s))
	}
	if j.Ranked() {
		fmt.Fprintf(&b, "Relevancia: %s\n", escapeMarkdown(format.Relevance(*j.SimilarityScore)))
	}
	fmt.Fprintf(&b, "ID: `%s`\n", escapeMarkdown(j.ID.String()))
	b.WriteString("\n")
	return b.String()
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]",
		"(", "\\(", ")", "\\)", "~", "\\~", "`", "\\`",
		">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
		"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}",
		".", "\\.", "!", "\\!",
	)
	return replacer.Replace(s)
}

func (tw *TelegramWriter) send(text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", tw.baseURL, tw.token)

	body, err := json.Marshal(map[string]string{
		"chat_id":    tw.chatID,
		"text":       text,
		"parse_mode": "MarkdownV2",
	})
	if err != nil {
		return fmt.Errorf("telegram: marshaling payload: %w", err)
	}

	resp, err := tw.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error %d: %s", resp.StatusCode, result.Description)
	}
	return nil
}
