package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

var ErrTranscriptTooShort = errors.New("transcript too short")

// Generator produces interview reports and follow-up question suggestions
// from a transcript using a Gemini model.
type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(ctx context.Context, apiKey, model string) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Generator{client: client, model: model}, nil
}

const reportPrompt = `Sen bir kıdemli teknik işe alım uzmanı gibi davranan yapay zekâsın.
Aşağıda bir iş mülakatının TÜRKÇE transkripti var. Bu transkripte göre aday için
profesyonel bir değerlendirme raporu çıkar.

ÇIKTI SADECE GEÇERLİ JSON OLMALI. Markdown, açıklama, yorum YAZMA.

JSON şeması ŞU ŞEKİLDE OLMALI:

{
  "overall_score": <0-100 arasında tam sayı>,
  "overall_comment": "<2-3 cümlelik kısa özet>",
  "sentiment": {"positive": <0-100>, "neutral": <0-100>, "negative": <0-100>},
  "key_topics": ["<kısa madde>", "..."],
  "strengths": ["<kısa madde>", "..."],
  "improvements": ["<kısa madde>", "..."]
}

Kurallar:
- Yüzdelerin toplamı yaklaşık 100 olmalı.
- Her listede en fazla 5 madde olsun.
- Dil TÜRKÇE ve profesyonel olsun (İK raporu gibi).
- Aşırı övgü ya da aşırı sert eleştiriden kaçın; dengeli ol.

MÜLAKAT TRANSKRİPTİ:

"""%s"""`

// Generate builds a normalized evaluation report from transcript.
func (g *Generator) Generate(ctx context.Context, transcript string) (Report, error) {
	if len(strings.TrimSpace(transcript)) < MinTranscriptLen {
		return Report{}, ErrTranscriptTooShort
	}

	raw, err := g.generateText(ctx, fmt.Sprintf(reportPrompt, transcript), true)
	if err != nil {
		return Report{}, err
	}

	var r Report
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &r); err != nil {
		log.Error().Err(err).Str("module", "report").Str("raw", truncate(raw, 200)).Msg("report response is not valid json")
		return Report{}, fmt.Errorf("parse report response: %w", err)
	}
	return Normalize(r), nil
}

const questionsPrompt = `Sen bir mülakat asistanısın. Adayın verdiği cevaplara göre takip soruları üretmen gerekiyor.
Aşağıdaki TÜRKÇE mülakat transkriptine göre görüşmecinin sorabileceği en fazla 5 kısa takip sorusu üret.
ÇIKTI SADECE GEÇERLİ JSON OLMALI: {"questions": ["...", "..."]}

TRANSKRİPT:

"""%s"""`

// Questions suggests follow-up questions for the interviewer. An empty
// transcript yields an empty list, not an error.
func (g *Generator) Questions(ctx context.Context, transcript string) ([]string, error) {
	if strings.TrimSpace(transcript) == "" {
		return []string{}, nil
	}

	raw, err := g.generateText(ctx, fmt.Sprintf(questionsPrompt, transcript), true)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &resp); err != nil {
		return nil, fmt.Errorf("parse questions response: %w", err)
	}
	return capList(resp.Questions), nil
}

func (g *Generator) generateText(ctx context.Context, prompt string, wantJSON bool) (string, error) {
	var cfg *genai.GenerateContentConfig
	if wantJSON {
		cfg = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
