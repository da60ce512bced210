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

const discordLimit = 1900

// DiscordWriter sends jobs to a Discord channel via Webhook.
type DiscordWriter struct {
	webhookURL string
	client     *http.Client
}

func NewDiscordWriter(webhookURL string) *DiscordWriter {
	return &DiscordWriter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (dw *DiscordWriter) WriteJobs(jobs []model.JobPosting) error {
	if len(jobs) == 0 {
		return dw.send(noResults)
	}

	entries := make([]string, len(jobs))
	for i, j := range jobs {
		entries[i] = formatDiscordJob(i+1, j)
	}
	header := fmt.Sprintf("**%d empleo(s) encontrado(s):**\n\n", len(jobs))

	for _, c := range chunk(header, entries, discordLimit) {
		if err := dw.send(c); err != nil {
			return err
		}
	}
	return nil
}

func formatDiscordJob(n int, j model.JobPosting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%d. %s**\n", n, j.Title)
	fmt.Fprintf(&b, "> Empresa: %s\n", j.Company)
	fmt.Fprintf(&b, "> Ubicación: %s\n", location(j))
	if j.Type != "" {
		fmt.Fprintf(&b, "> Tipo: %s\n", format.JobTypeLabel(string(j.Type)))
	}
	if s := format.SalaryOf(j.Salary); s != "" {
		fmt.Fprintf(&b, "> Salario: %s\n", s)
	}
	if j.Ranked() {
		fmt.Fprintf(&b, "> Relevancia: %s\n", format.Relevance(*j.SimilarityScore))
	}
	b.WriteString("\n")
	return b.String()
}

type discordPayload struct {
	Content string `json:"content"`
}

func (dw *DiscordWriter) send(text string) error {
	payload, err := json.Marshal(discordPayload{Content: text})
	if err != nil {
		return fmt.Errorf("discord: marshaling payload: %w", err)
	}

	resp, err := dw.client.Post(dw.webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("discord: sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var result struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("discord: API error %d: %s", resp.StatusCode, result.Message)
	}
	return nil
}
