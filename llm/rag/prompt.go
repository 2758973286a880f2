package rag

import (
	"fmt"
	"strings"
)

// Prompt languages
const (
	LanguageEnglish    = "en"
	LanguagePortuguese = "pt"
)

// Fixed refusal sentences returned when the answer is not in the retrieved context
const (
	RefusalEnglish    = "I don't have the information needed to answer your question."
	RefusalPortuguese = "Não tenho informações necessárias para responder sua pergunta."
)

// Template variables
const (
	varContext  = "context"
	varQuestion = "question"
)

const englishTemplate = `
CONTEXT:
{context}

RULES:
- Answer only based on the CONTEXT.
- If the information is not explicitly in the CONTEXT, reply:
  "I don't have the information needed to answer your question."
- Never make things up or use outside knowledge.
- Never give opinions or interpretations beyond what is written.

EXAMPLES OF OUT-OF-CONTEXT QUESTIONS:
Question: "What is the capital of France?"
Answer: "I don't have the information needed to answer your question."

Question: "How many customers do we have in 2024?"
Answer: "I don't have the information needed to answer your question."

Question: "Do you think this is good or bad?"
Answer: "I don't have the information needed to answer your question."

USER QUESTION:
{question}

ANSWER THE "USER QUESTION"
`

const portugueseTemplate = `
CONTEXTO:
{context}

REGRAS:
- Responda somente com base no CONTEXTO.
- Se a informação não estiver explicitamente no CONTEXTO, responda:
  "Não tenho informações necessárias para responder sua pergunta."
- Nunca invente ou use conhecimento externo.
- Nunca produza opiniões ou interpretações além do que está escrito.

EXEMPLOS DE PERGUNTAS FORA DO CONTEXTO:
Pergunta: "Qual é a capital da França?"
Resposta: "Não tenho informações necessárias para responder sua pergunta."

Pergunta: "Quantos clientes temos em 2024?"
Resposta: "Não tenho informações necessárias para responder sua pergunta."

Pergunta: "Você acha isso bom ou ruim?"
Resposta: "Não tenho informações necessárias para responder sua pergunta."

PERGUNTA DO USUÁRIO:
{question}

RESPONDA A "PERGUNTA DO USUÁRIO"
`

// Prompt is a grounded-answer template and the refusal sentence it instructs the model to use
type Prompt struct {
	Language string
	Template string
	Refusal  string
}

// PromptFor returns the prompt for a language code ("en" or "pt")
func PromptFor(language string) (Prompt, error) {
	switch strings.ToLower(language) {
	case LanguageEnglish, "":
		return Prompt{Language: LanguageEnglish, Template: englishTemplate, Refusal: RefusalEnglish}, nil
	case LanguagePortuguese:
		return Prompt{Language: LanguagePortuguese, Template: portugueseTemplate, Refusal: RefusalPortuguese}, nil
	default:
		return Prompt{}, fmt.Errorf("unsupported prompt language %q", language)
	}
}
