package llm

import (
	"strings"

	"daftar/internal/core"
)

const classifyPrompt = `You route messages sent to a personal finance assistant.
Reply with exactly one word:
- write: the user reports money they spent or received (e.g. "شريت قهوة 15", "استلمت الراتب 8000").
- read: the user asks about past spending, income, balance or reports (e.g. "كم صرفت هذا الشهر؟").
- chat: anything else (greetings, questions, small talk).
Reply with write, read or chat and nothing else.`

const summarizePrompt = `You are a personal finance assistant replying on a chat app.
Answer the user's question in Arabic, in at most five short lines.
Use ONLY the numbers given in FACTS. Never invent numbers, dates or categories.
If FACTS say there is no data, say so plainly.`

const chatPrompt = `You are "دفتر", a friendly Arabic-speaking assistant that keeps the user's expense and income ledger.
Reply briefly in the user's language. When relevant, remind them they can record a transaction
by writing something like "شريت قهوة 15" or ask "كم صرفت هذا الشهر؟".`

// TranscribePrompt instructs multimodal models that transcribe voice notes.
const TranscribePrompt = `Transcribe this voice note verbatim in its original language. Return only the transcript.`

// extractPrompt builds the extraction instructions from the taxonomy so the
// model is offered exactly the labels the user will later see.
func extractPrompt(tax core.Taxonomy) string {
	var b strings.Builder
	b.WriteString("You are an expense tracker. Extract one transaction from the user's message as JSON with exactly these fields:\n")
	b.WriteString(`{"item": string, "amount": number, "category": string, "kind": "expense" | "income", "currency": string | null}` + "\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- item: a short label for what was bought or received, in the user's language.\n")
	b.WriteString("- amount: a non-negative number without currency symbols.\n")
	b.WriteString("- currency: ISO code if the message names one (ريال = SAR, درهم = AED, دولار = USD), otherwise null.\n")
	b.WriteString("- kind: income for salary, payments received, gifts received; expense otherwise.\n")
	b.WriteString("- category: use ONLY one of the categories listed for the chosen kind.\n")
	b.WriteString("- If the item is too vague to categorize with confidence (a bare store name, a transfer, a person's name), set category to \"")
	b.WriteString(core.NeedsClarification)
	b.WriteString("\". Do not guess.\n\n")

	b.WriteString("Expense categories:\n")
	for _, c := range tax.Labels(core.Expense) {
		b.WriteString("- " + c + "\n")
	}
	b.WriteString("\nIncome categories:\n")
	for _, c := range tax.Labels(core.Income) {
		b.WriteString("- " + c + "\n")
	}
	b.WriteString("\nReturn ONLY valid raw JSON. Do NOT wrap the response in code fences.")
	return b.String()
}
