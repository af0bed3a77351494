package models

import "strings"

// Intent is the closed set of conversational intents the dispatcher
// understands. Anything the classifier emits outside this set parses to
// IntentUnrecognized so new intents cannot silently change routing.
type Intent string

const (
	IntentGetMenu        Intent = "get_menu"
	IntentProvidePhone   Intent = "provide_phone"
	IntentProvideAddress Intent = "provide_address"
	IntentPlaceOrder     Intent = "place_order"
	IntentChitchat       Intent = "chitchat"
	IntentUnknown        Intent = "unknown"
	IntentUnrecognized   Intent = "unrecognized"
)

// ParseIntent maps a raw classifier label onto the closed intent set.
func ParseIntent(raw string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(raw))) {
	case IntentGetMenu:
		return IntentGetMenu
	case IntentProvidePhone:
		return IntentProvidePhone
	case IntentProvideAddress:
		return IntentProvideAddress
	case IntentPlaceOrder:
		return IntentPlaceOrder
	case IntentChitchat:
		return IntentChitchat
	case IntentUnknown:
		return IntentUnknown
	default:
		return IntentUnrecognized
	}
}

// IntentData is the structured interpretation of one user utterance,
// produced by the classifier port.
type IntentData struct {
	Intent       Intent   `json:"intent"`
	Phone        string   `json:"phone,omitempty"`
	Address      string   `json:"address,omitempty"`
	Items        []string `json:"items,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	Satisfaction *float64 `json:"satisfaction,omitempty"`
}

// UnknownIntent is the degraded result used when the classifier is
// unavailable or returns something unparseable.
func UnknownIntent() IntentData {
	return IntentData{Intent: IntentUnknown}
}
