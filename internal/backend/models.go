package backend

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NullFilterValue selects records whose column is empty. It is forwarded verbatim.
const NullFilterValue = "null"

// Filter option values offered by the backend.
//
//nolint:gochecknoglobals // Read-only option tables.
var (
	IngredientClasses = []string{
		"ignore",
		"may be non-vegetarian",
		"non-vegetarian",
		"typically vegan",
		"typically vegetarian",
		"vegan",
		"vegetarian",
	}
	PrimaryClasses     = []string{"non-vegetarian", "undetermined", "vegan", "vegetarian"}
	SubscriptionLevels = []string{"free", "standard", "premium"}
	ActivityTypes      = []string{"scan", "search", "lookup", "classify", "error"}
)

// Timestamp decodes the timestamp formats PostgREST and to_json produce.
type Timestamp struct {
	time.Time
}

//nolint:gochecknoglobals // Read-only layout table.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05.999999",
	time.DateOnly,
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp parses s using any of the accepted layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t Timestamp) MarshalYAML() (any, error) {
	if t.IsZero() {
		return nil, nil //nolint:nilnil // YAML null.
	}
	return t.UTC().Format(time.RFC3339), nil
}

// Ingredient is a row of the ingredient classification table.
type Ingredient struct {
	Title        string    `json:"title"         yaml:"title"`
	Class        *string   `json:"class"         yaml:"class"`
	PrimaryClass *string   `json:"primary_class" yaml:"primary_class"`
	ProductCount int       `json:"productcount"  yaml:"product_count"`
	LastUpdated  Timestamp `json:"lastupdated"   yaml:"last_updated"`
	Created      Timestamp `json:"created"       yaml:"created"`
}

// Product is a scanned product keyed by its EAN-13.
type Product struct {
	EAN13          string    `json:"ean13"          yaml:"ean13"`
	Name           string    `json:"product_name"   yaml:"product_name"`
	Brand          string    `json:"brand"          yaml:"brand"`
	UPC            string    `json:"upc"            yaml:"upc"`
	Ingredients    string    `json:"ingredients"    yaml:"ingredients"`
	Analysis       string    `json:"analysis"       yaml:"analysis"`
	Classification string    `json:"classification" yaml:"classification"`
	Mfg            string    `json:"mfg"            yaml:"mfg"`
	ImageURL       string    `json:"imageurl"       yaml:"imageurl"`
	Issues         string    `json:"issues"         yaml:"issues"`
	LastUpdated    Timestamp `json:"lastupdated"    yaml:"last_updated"`
	Created        Timestamp `json:"created"        yaml:"created"`
}

// Subscription is a user's paid subscription.
type Subscription struct {
	ID        uuid.UUID  `json:"id"                 yaml:"id"`
	UserID    uuid.UUID  `json:"user_id"            yaml:"user_id"`
	UserEmail string     `json:"user_email"         yaml:"user_email"`
	Level     string     `json:"subscription_level" yaml:"subscription_level"`
	CreatedAt Timestamp  `json:"created_at"         yaml:"created_at"`
	UpdatedAt Timestamp  `json:"updated_at"         yaml:"updated_at"`
	ExpiresAt *Timestamp `json:"expires_at"         yaml:"expires_at"`
	IsActive  bool       `json:"is_active"          yaml:"is_active"`
}

// Profile is a user profile carrying a complimentary ("freebie") subscription level.
type Profile struct {
	ID        uuid.UUID  `json:"id"                 yaml:"id"`
	Email     string     `json:"email"              yaml:"email"`
	Level     string     `json:"subscription_level" yaml:"subscription_level"`
	ExpiresAt *Timestamp `json:"expires_at"         yaml:"expires_at"`
	CreatedAt Timestamp  `json:"created_at"         yaml:"created_at"`
	UpdatedAt Timestamp  `json:"updated_at"         yaml:"updated_at"`
}

// ActivityEntry is one row of the app's action log.
type ActivityEntry struct {
	ID        string         `json:"id"         yaml:"id"`
	Type      string         `json:"type"       yaml:"type"`
	Input     string         `json:"input"      yaml:"input"`
	UserID    *string        `json:"userid"     yaml:"user_id"`
	UserEmail string         `json:"user_email" yaml:"user_email"`
	CreatedAt Timestamp      `json:"created_at" yaml:"created_at"`
	Result    *string        `json:"result"     yaml:"result"`
	Metadata  map[string]any `json:"metadata"   yaml:"metadata"`
	DeviceID  *string        `json:"deviceid"   yaml:"device_id"`
}

// activityPage is the envelope returned by the paginated action log procedure.
type activityPage struct {
	Activities []ActivityEntry `json:"activities"`
	TotalCount int             `json:"total_count"`
	PageSize   int             `json:"page_size"`
	PageOffset int             `json:"page_offset"`
	HasMore    bool            `json:"has_more"`
}

// ingredientPage is the envelope returned by the newest and unclassified procedures.
type ingredientPage struct {
	Ingredients []Ingredient `json:"ingredients"`
	TotalCount  int          `json:"total_count"`
}

// Deref returns *s or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
