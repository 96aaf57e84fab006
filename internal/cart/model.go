package cart

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("cart: not found")
	ErrItemNotFound = errors.New("cart: item not found")
	ErrInvalidItem  = errors.New("cart: invalid item")
)

const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
	FrameYes             = "yes"
	FrameNo              = "no"
)

type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Image    string `json:"image,omitempty"`
}

// IsShirt reports whether design preferences apply to the product.
func (p Product) IsShirt() bool {
	c := strings.ToLower(p.Category)
	return strings.Contains(c, "shirt") || strings.Contains(c, "tee")
}

type Variant struct {
	Color string `json:"color,omitempty"`
	Size  string `json:"size,omitempty"`
}

// ToolSettings are the per-item design preferences forwarded to checkout as-is.
type ToolSettings struct {
	ImageOrientation string  `json:"imageOrientation"`
	Feather          float64 `json:"feather"`
	CornerRadius     float64 `json:"cornerRadius"`
	Frame            string  `json:"frame"`
}

func (t ToolSettings) Validate() error {
	switch t.ImageOrientation {
	case OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: imageOrientation must be portrait or landscape", ErrInvalidItem)
	}
	switch t.Frame {
	case FrameYes, FrameNo:
	default:
		return fmt.Errorf("%w: frame must be yes or no", ErrInvalidItem)
	}
	if t.Feather < 0 || t.CornerRadius < 0 {
		return fmt.Errorf("%w: feather and cornerRadius must not be negative", ErrInvalidItem)
	}
	return nil
}

// Item is one cart line. VariantID is the fulfilment catalog variant; shipping is quoted
// live only when every item carries one.
type Item struct {
	ID                 string        `json:"id"`
	Product            Product       `json:"product"`
	Variant            Variant       `json:"variants"`
	VariantID          string        `json:"variant_id,omitempty"`
	Price              float64       `json:"price"`
	Quantity           int           `json:"quantity"`
	SelectedScreenshot string        `json:"selected_screenshot,omitempty"`
	ToolSettings       *ToolSettings `json:"toolSettings,omitempty"`
}

func (it Item) Validate() error {
	if it.Product.ID == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidItem)
	}
	if it.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidItem)
	}
	if it.Price < 0 || math.IsNaN(it.Price) || math.IsInf(it.Price, 0) {
		return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidItem)
	}
	if it.ToolSettings != nil {
		return it.ToolSettings.Validate()
	}
	return nil
}

func (it Item) LineTotal() float64 {
	return it.Price * float64(it.Quantity)
}

type Cart struct {
	SessionID string    `json:"session_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(sessionID string) *Cart {
	return &Cart{SessionID: sessionID, Items: []Item{}, UpdatedAt: time.Now().UTC()}
}

// Subtotal is the sum of price x quantity, rounded to cents.
func (c *Cart) Subtotal() float64 {
	total := 0.0
	for _, it := range c.Items {
		total += it.LineTotal()
	}
	return RoundCents(total)
}

// Add puts it in the cart. An item with the same product, variant and screenshot and no
// design preferences of its own is merged by adding quantities.
func (c *Cart) Add(it Item) (Item, error) {
	if err := it.Validate(); err != nil {
		return Item{}, err
	}
	if it.ToolSettings == nil {
		for i := range c.Items {
			cur := &c.Items[i]
			if cur.ToolSettings == nil && cur.Product.ID == it.Product.ID &&
				cur.Variant == it.Variant && cur.VariantID == it.VariantID && cur.SelectedScreenshot == it.SelectedScreenshot {
				cur.Quantity += it.Quantity
				cur.Price = it.Price
				c.touch()
				return *cur, nil
			}
		}
	}
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	c.Items = append(c.Items, it)
	c.touch()
	return it, nil
}

func (c *Cart) UpdatePreferences(itemID string, ts *ToolSettings) (Item, error) {
	if ts != nil {
		if err := ts.Validate(); err != nil {
			return Item{}, err
		}
	}
	i := c.indexOf(itemID)
	if i < 0 {
		return Item{}, ErrItemNotFound
	}
	c.Items[i].ToolSettings = ts
	c.touch()
	return c.Items[i], nil
}

func (c *Cart) UpdateQuantity(itemID string, qty int) (Item, error) {
	if qty <= 0 {
		return Item{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidItem)
	}
	i := c.indexOf(itemID)
	if i < 0 {
		return Item{}, ErrItemNotFound
	}
	c.Items[i].Quantity = qty
	c.touch()
	return c.Items[i], nil
}

func (c *Cart) Remove(itemID string) error {
	i := c.indexOf(itemID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.touch()
	return nil
}

func (c *Cart) indexOf(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) touch() { c.UpdatedAt = time.Now().UTC() }

func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
