package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Reply catalog keys. Entries holding a %s are format strings.
const (
	ReplyFallback           = "fallback"
	ReplyUnrecognized       = "unrecognized"
	ReplyMenuUnavailable    = "menu_unavailable"
	ReplyMenuHeader         = "menu_header"
	ReplyMenuFooter         = "menu_footer"
	ReplyAskPhone           = "ask_phone"
	ReplyPhoneVerified      = "phone_verified"
	ReplyPhoneUnverified    = "phone_unverified"
	ReplyAskAddress         = "ask_address"
	ReplyAddressConfirm     = "address_confirm"
	ReplyOrderUnknownHeader = "order_unknown_header"
	ReplyOrderSuggestHeader = "order_suggest_header"
	ReplyOrderClarifyFooter = "order_clarify_footer"
	ReplyOrderFailed        = "order_failed"
	ReplyOrderThanks        = "order_thanks"
	ReplyApology            = "apology"
)

var defaultReplies = map[string]string{
	ReplyFallback:           "I can help you with food orders, menus, and delivery details. What would you like to eat today?",
	ReplyUnrecognized:       "I'm not sure I understood that. I can help you with food ordering. For example, you can say: 'Show me the menu' or 'I want a cheeseburger.'",
	ReplyMenuUnavailable:    "Our menu system is temporarily unavailable, but I can still take your order. What would you like to eat?",
	ReplyMenuHeader:         "Here are some options on the menu:",
	ReplyMenuFooter:         "What would you like to order?",
	ReplyAskPhone:           "I didn't catch your phone number. Can you say it again?",
	ReplyPhoneVerified:      "Got it. I've verified your number as %s. What is your delivery address?",
	ReplyPhoneUnverified:    "I heard your phone as %s, but I couldn't verify it. We can still use it. What is your delivery address?",
	ReplyAskAddress:         "I didn't catch your address. Can you please repeat it?",
	ReplyAddressConfirm:     "Thanks, I have your address as: %s. Would you like me to place the order now?",
	ReplyOrderUnknownHeader: "I couldn't find these items in our menu:",
	ReplyOrderSuggestHeader: "Here are some items you can order instead:",
	ReplyOrderClarifyFooter: "Can you please choose from the menu items?",
	ReplyOrderFailed:        "I couldn't place your order just now. Please try again in a moment.",
	ReplyOrderThanks:        " Thank you for ordering! Enjoy your meal.",
	ReplyApology:            "Something went wrong on my side. Could you try that again?",
}

// Catalog serves the assistant's canned reply texts. Defaults are built
// in; a YAML file of key/text pairs overrides individual entries and can
// be hot-reloaded while the orchestrator is running.
type Catalog struct {
	mu       sync.RWMutex
	replies  map[string]string
	path     string
	debounce time.Duration
}

// DefaultCatalog returns a Catalog with the built-in replies.
func DefaultCatalog() *Catalog {
	replies := make(map[string]string, len(defaultReplies))
	for k, v := range defaultReplies {
		replies[k] = v
	}
	return &Catalog{replies: replies, debounce: 100 * time.Millisecond}
}

// LoadCatalog returns the defaults merged with overrides from path.
// A missing file is not an error; the defaults stand.
func LoadCatalog(path string) (*Catalog, error) {
	c := DefaultCatalog()
	c.path = path
	if err := c.reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the reply text for key, or "" for an unknown key.
func (c *Catalog) Get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.replies[key]
}

func (c *Catalog) reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range overrides {
		if v != "" {
			c.replies[k] = v
		}
	}
	return nil
}

// Watch reloads the overrides file when it changes. The parent directory
// is watched because editors replace files rather than write in place.
// Watch returns once the watcher is running; it stops when ctx is done.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != c.path || !event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(c.debounce, func() {
					if err := c.reload(); err != nil {
						log.Warn().Err(err).Str("path", c.path).Msg("Failed to reload reply catalog")
						return
					}
					log.Info().Str("path", c.path).Msg("Reply catalog reloaded")
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("Reply catalog watcher error")
			}
		}
	}()
	return nil
}
