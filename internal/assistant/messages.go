package assistant

import (
	"fmt"
	"strings"
	"unicode"

	"daftar/internal/core"
)

// Quick-reply labels for the confirmation triad.
const (
	LabelConfirm        = "✅ تأكيد"
	LabelCancel         = "❌ إلغاء"
	LabelChangeCategory = "🔄 تغيير التصنيف"
)

const (
	msgEmpty           = "أرسل وصف العملية، مثل: شريت قهوة 15"
	msgNotUnderstood   = "❌ لم أتمكن من فهم رسالتك، حاول مرة أخرى."
	msgExtractFailed   = "❌ لم أتمكن من فهم تفاصيل العملية، حاول مرة أخرى بصيغة مثل: شريت قهوة 15"
	msgCancelled       = "🗑️ تم إلغاء العملية."
	msgNothingPending  = "لا توجد عملية معلقة حالياً."
	msgAbandoned       = "ℹ️ تم تجاهل العملية المعلقة."
	msgQueryFailed     = "❌ تعذر جلب البيانات حالياً، حاول لاحقاً."
	msgNoHistory       = "📭 لا توجد أي بيانات مسجلة بعد."
	msgGenericFailure  = "❌ حدث خطأ غير متوقع، حاول مرة أخرى."
	msgVoiceNotSupport = "🎙️ الرسائل الصوتية غير مدعومة حالياً، أرسل النص من فضلك."
)

type fixedReply int

const (
	replyNone fixedReply = iota
	replyConfirm
	replyCancel
	replyChangeCategory
)

func (r fixedReply) String() string {
	switch r {
	case replyConfirm:
		return "confirm"
	case replyCancel:
		return "cancel"
	case replyChangeCategory:
		return "change-category"
	}
	return "none"
}

var fixedReplies = map[string]fixedReply{
	"confirm":         replyConfirm,
	"yes":             replyConfirm,
	"تأكيد":           replyConfirm,
	"تاكيد":           replyConfirm,
	"نعم":             replyConfirm,
	"cancel":          replyCancel,
	"no":              replyCancel,
	"إلغاء":           replyCancel,
	"الغاء":           replyCancel,
	"لا":              replyCancel,
	"change-category": replyChangeCategory,
	"change category": replyChangeCategory,
	"تغيير التصنيف":   replyChangeCategory,
	"تغيير":           replyChangeCategory,
}

// parseFixedReply recognises the keyboard labels and their plain-text
// equivalents, ignoring emoji, punctuation and a leading slash.
func parseFixedReply(text string) fixedReply {
	norm := strings.ToLower(strings.TrimFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}))
	return fixedReplies[norm]
}

// isKeyboardLabel reports whether text is one of the quick-reply labels as
// sent by a button press.
func isKeyboardLabel(text string) bool {
	switch strings.TrimSpace(text) {
	case LabelConfirm, LabelCancel, LabelChangeCategory:
		return true
	}
	return false
}

func confirmRows() [][]string {
	return [][]string{{LabelConfirm, LabelCancel}, {LabelChangeCategory}}
}

func describe(t core.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 %s\n", t.Item)
	fmt.Fprintf(&b, "💰 %s %s\n", core.FormatAmount(t.Amount), t.Currency)
	if t.Category != "" && t.Category != core.NeedsClarification {
		fmt.Fprintf(&b, "📂 %s\n", t.Category)
	}
	fmt.Fprintf(&b, "🏷️ %s", kindLabel(t.Kind))
	return b.String()
}

func kindLabel(k core.Kind) string {
	if k == core.Income {
		return "دخل"
	}
	return "مصروف"
}

func recordedReply(t core.Transaction) Reply {
	return Reply{Text: "✅ تم التسجيل\n" + describe(t)}
}

func confirmReply(t core.Transaction) Reply {
	return Reply{
		Text:         "هل تريد تسجيل العملية التالية؟\n" + describe(t),
		QuickReplies: confirmRows(),
	}
}

func categoryReply(t core.Transaction, tax core.Taxonomy) Reply {
	rows := tax.Rows(t.Kind, 2)
	rows = append(rows, []string{LabelCancel})
	return Reply{
		Text: fmt.Sprintf("🤔 اختر التصنيف المناسب لـ «%s» (%s %s):",
			t.Item, core.FormatAmount(t.Amount), t.Currency),
		QuickReplies: rows,
	}
}

func retryReply(t core.Transaction, attempt, max int) Reply {
	return Reply{
		Text: fmt.Sprintf("⚠️ تعذر حفظ العملية (المحاولة %d من %d). اضغط «%s» للمحاولة مرة أخرى.\n%s",
			attempt, max, LabelConfirm, describe(t)),
		QuickReplies: confirmRows(),
	}
}

func gaveUpReply(attempts int) Reply {
	return Reply{Text: fmt.Sprintf("❌ تعذر حفظ العملية بعد %d محاولات، تم إلغاؤها. حاول لاحقاً.", attempts)}
}

func noDataInPeriodReply(period string) Reply {
	return Reply{Text: fmt.Sprintf("📭 لا توجد عمليات مسجلة في فترة «%s».", period)}
}

func textReply(s string) Reply {
	return Reply{Text: s}
}

// withNote prefixes r with a one-line notice.
func withNote(note string, r Reply) Reply {
	r.Text = note + "\n\n" + r.Text
	return r
}
