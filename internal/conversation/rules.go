package conversation

import (
	"regexp"
	"strconv"
	"strings"
)

// Intent classifications stored on the conversation once a rule fires.
const (
	IntentEventInquiry   = "event_inquiry"
	IntentHandoff        = "handoff"
	IntentPricingInquiry = "pricing_inquiry"
	IntentServiceInquiry = "service_inquiry"
)

// Guest counts outside (minGuests, maxGuests) are ignored; both bounds are
// exclusive.
const (
	minGuests = 10
	maxGuests = 1000
)

var (
	// Numeric day/month forms like 15/06 or 15-06-2026.
	dateLikeRE = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?`)

	// Day-of-month plus Spanish month name, e.g. "15 de junio" or "junio".
	monthRE = regexp.MustCompile(`(?i)(?:\d{1,2}\s*(?:de\s+)?)?` +
		`(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)`)

	firstIntRE = regexp.MustCompile(`\d+`)
)

// eventTypePatterns maps message keywords to canonical event categories.
// Ordered: the first pattern found in the message wins, so more specific
// keywords come before generic ones.
var eventTypePatterns = []struct {
	keyword string
	name    string
}{
	{"boda", "Boda"},
	{"matrimonio", "Boda"},
	{"casamiento", "Boda"},
	{"quincea", "Quinceañero"},
	{"15 años", "Quinceañero"},
	{"quince años", "Quinceañero"},
	{"baby shower", "Baby Shower"},
	{"cumplea", "Cumpleaños"},
	{"cumple", "Cumpleaños"},
	{"aniversario", "Aniversario"},
	{"graduaci", "Graduación"},
	{"promoción", "Graduación"},
	{"promocion", "Graduación"},
	{"corporativ", "Evento Corporativo"},
	{"empresa", "Evento Corporativo"},
	{"conferencia", "Evento Corporativo"},
	{"bautizo", "Bautizo"},
}

// Handoff triggers match on word boundaries so "150 personas" (a guest
// count answer) does not read as a request for a human.
var handoffRE = regexp.MustCompile(`(?i)\b(persona|humano|asesor|agente|alguien)\b`)

var budgetMarkers = []string{
	"s/", "s/.", "soles", "sol ", "presupuesto", "$", "dolares", "dólares", "usd",
}

var pricingKeywords = []string{
	"precio", "costo", "cuesta", "cuánto", "cuanto", "tarifa", "cotización", "cotizacion",
}

var servicesKeywords = []string{
	"servicios", "paquetes", "que ofrecen", "qué ofrecen", "catálogo", "catalogo", "incluye",
}

// Action is the outcome of evaluating one inbound message: a reply to send
// plus any slot values extracted from the text.
type Action struct {
	Rule    string
	Reply   string
	Slots   LeadData
	Intent  string
	Handoff bool
}

type inbound struct {
	raw   string
	lower string
	data  LeadData
	first bool
}

// rule pairs a predicate with its handler. Rules are evaluated in order and
// the first match wins, so ordering is part of the contract: event-type
// detection runs before date detection, date before guest count, guest count
// before budget.
type rule struct {
	name    string
	matches func(in inbound) bool
	apply   func(in inbound) Action
}

// Engine classifies inbound messages against an ordered rule table.
type Engine struct {
	rules []rule
}

// NewEngine builds the capture rule table.
func NewEngine() *Engine {
	e := &Engine{}
	e.rules = []rule{
		{
			name:    "welcome",
			matches: func(in inbound) bool { return in.first },
			apply: func(in inbound) Action {
				return Action{Reply: replyWelcome}
			},
		},
		{
			name:    "handoff",
			matches: func(in inbound) bool { return handoffRE.MatchString(in.lower) },
			apply: func(in inbound) Action {
				return Action{Reply: replyHandoff, Intent: IntentHandoff, Handoff: true}
			},
		},
		{
			name: "event_type",
			matches: func(in inbound) bool {
				return in.data.EventType == "" && matchEventType(in.lower) != ""
			},
			apply: func(in inbound) Action {
				name := matchEventType(in.lower)
				return Action{
					Reply:  replyForEventType(name),
					Slots:  LeadData{EventType: name},
					Intent: IntentEventInquiry,
				}
			},
		},
		{
			name: "event_date",
			matches: func(in inbound) bool {
				return in.data.EventDate == "" && matchDateText(in.raw) != ""
			},
			apply: func(in inbound) Action {
				return Action{
					Reply: replyAskGuests,
					Slots: LeadData{EventDate: matchDateText(in.raw)},
				}
			},
		},
		{
			name: "guest_count",
			matches: func(in inbound) bool {
				return in.data.GuestCount == 0 && firstIntInRange(in.raw) > 0
			},
			apply: func(in inbound) Action {
				return Action{
					Reply: replyAskBudget,
					Slots: LeadData{GuestCount: firstIntInRange(in.raw)},
				}
			},
		},
		{
			name: "budget",
			matches: func(in inbound) bool {
				return in.data.Budget == "" && containsAny(in.lower, budgetMarkers)
			},
			apply: func(in inbound) Action {
				return Action{
					Reply: replyAskContact,
					Slots: LeadData{Budget: strings.TrimSpace(in.raw)},
				}
			},
		},
		{
			name:    "pricing",
			matches: func(in inbound) bool { return containsAny(in.lower, pricingKeywords) },
			apply: func(in inbound) Action {
				return Action{Reply: replyPricing, Intent: IntentPricingInquiry}
			},
		},
		{
			name:    "services",
			matches: func(in inbound) bool { return containsAny(in.lower, servicesKeywords) },
			apply: func(in inbound) Action {
				return Action{Reply: replyServices, Intent: IntentServiceInquiry}
			},
		},
	}
	return e
}

// Evaluate inspects one inbound message against the current captured data.
// It never fails: an unrecognized message falls through to the default
// clarifying reply. Matching is case-insensitive substring containment.
func (e *Engine) Evaluate(text string, data LeadData, firstMessage bool) Action {
	in := inbound{
		raw:   text,
		lower: strings.ToLower(text),
		data:  data,
		first: firstMessage,
	}
	for _, r := range e.rules {
		if r.matches(in) {
			action := r.apply(in)
			action.Rule = r.name
			return action
		}
	}
	return Action{Rule: "default", Reply: replyDefault}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// matchEventType returns the canonical category for the first table keyword
// found in the message, or "" when none matches. First match wins even when
// several keywords appear.
func matchEventType(lower string) string {
	for _, p := range eventTypePatterns {
		if strings.Contains(lower, p.keyword) {
			return p.name
		}
	}
	return ""
}

// matchDateText returns the raw date-like fragment from the message, keeping
// the user's original casing. The text is stored as-is, not parsed.
func matchDateText(raw string) string {
	if m := monthRE.FindString(raw); m != "" {
		return strings.TrimSpace(m)
	}
	if m := dateLikeRE.FindString(raw); m != "" {
		return m
	}
	return ""
}

// firstIntInRange extracts the first integer in the message and returns it
// when it falls strictly between minGuests and maxGuests, else 0. Always the
// first integer, never the largest or last.
func firstIntInRange(raw string) int {
	m := firstIntRE.FindString(raw)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	if n > minGuests && n < maxGuests {
		return n
	}
	return 0
}
