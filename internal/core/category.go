package core

import "strings"

// Category is a closed set of tags. The string values are the wire names
// used by the persisted ledger.
type Category string

const (
	Food          Category = "Food"
	Groceries     Category = "Groceries"
	DiningOut     Category = "Dining Out"
	Transport     Category = "Transport"
	Fuel          Category = "Fuel"
	Gasoline      Category = "Gasoline"
	Rent          Category = "Rent"
	Utilities     Category = "Utilities"
	Housing       Category = "Housing"
	Shopping      Category = "Shopping"
	Entertainment Category = "Entertainment"
	Subscriptions Category = "Subscriptions"
	PhoneCard     Category = "Phone Card"
	Health        Category = "Health"
	PersonalCare  Category = "Personal Care"
	Education     Category = "Education"
	Travel        Category = "Travel"
	Maintenance   Category = "Maintenance"
	Insurance     Category = "Insurance"
	Pets          Category = "Pets"
	Parents       Category = "Parents"
	Taxes         Category = "Taxes"
	Loans         Category = "Loans"
	Salary        Category = "Salary"
	Investment    Category = "Investment"
	Savings       Category = "Savings"
	Bonus         Category = "Bonus"
	Donations     Category = "Donations"
	Gift          Category = "Gift"
	Other         Category = "Other"
)

// Icon identifies a glyph in the fixed icon pool offered by the front end.
type Icon string

const (
	IconUtensils    Icon = "Utensils"
	IconCar         Icon = "Car"
	IconShoppingBag Icon = "ShoppingBag"
	IconFilm        Icon = "Film"
	IconActivity    Icon = "Activity"
	IconBriefcase   Icon = "Briefcase"
	IconGift        Icon = "Gift"
	IconMore        Icon = "More"
	IconHome        Icon = "Home"
	IconCoffee      Icon = "Coffee"
	IconFuel        Icon = "Fuel"
	IconGasoline    Icon = "Gasoline"
	IconSmartphone  Icon = "Smartphone"
	IconBook        Icon = "Book"
	IconHeart       Icon = "Heart"
	IconZap         Icon = "Zap"
	IconMusic       Icon = "Music"
	IconWallet      Icon = "Wallet"
	IconShield      Icon = "Shield"
	IconGlobe       Icon = "Globe"
	IconPlane       Icon = "Plane"
	IconPaw         Icon = "Paw"
	IconBank        Icon = "Bank"
	IconStar        Icon = "Star"
	IconUser        Icon = "User"
	IconPiggyBank   Icon = "PiggyBank"
)

type categoryInfo struct {
	color      string
	icon       Icon
	incomeOnly bool
}

// categoryOrder is the display order; categoryTable must have an entry for
// each of them.
var categoryOrder = []Category{
	Food, Groceries, DiningOut, Transport, Fuel, Gasoline, Rent, Utilities,
	Housing, Shopping, Entertainment, Subscriptions, PhoneCard, Health, PersonalCare,
	Education, Travel, Maintenance, Insurance, Pets, Parents, Taxes, Loans,
	Salary, Investment, Savings, Bonus, Donations, Gift, Other,
}

var categoryTable = map[Category]categoryInfo{
	Food:          {color: "#f59e0b", icon: IconUtensils},
	Groceries:     {color: "#10b981", icon: IconShoppingBag},
	DiningOut:     {color: "#f97316", icon: IconCoffee},
	Transport:     {color: "#6366f1", icon: IconCar},
	Fuel:          {color: "#ef4444", icon: IconFuel},
	Gasoline:      {color: "#f43f5e", icon: IconGasoline},
	Rent:          {color: "#3b82f6", icon: IconHome},
	Utilities:     {color: "#eab308", icon: IconZap},
	Housing:       {color: "#1e293b", icon: IconHome},
	Shopping:      {color: "#ec4899", icon: IconShoppingBag},
	Entertainment: {color: "#8b5cf6", icon: IconFilm},
	Subscriptions: {color: "#06b6d4", icon: IconSmartphone},
	PhoneCard:     {color: "#6366f1", icon: IconSmartphone},
	Health:        {color: "#10b981", icon: IconActivity},
	PersonalCare:  {color: "#d946ef", icon: IconHeart},
	Education:     {color: "#64748b", icon: IconBook},
	Travel:        {color: "#0ea5e9", icon: IconPlane},
	Maintenance:   {color: "#475569", icon: IconShield},
	Insurance:     {color: "#1e293b", icon: IconShield},
	Pets:          {color: "#fbbf24", icon: IconPaw},
	Parents:       {color: "#8b5cf6", icon: IconUser},
	Taxes:         {color: "#ef4444", icon: IconBank},
	Loans:         {color: "#dc2626", icon: IconBank},
	Salary:        {color: "#22c55e", icon: IconBriefcase, incomeOnly: true},
	Investment:    {color: "#84cc16", icon: IconStar},
	Savings:       {color: "#059669", icon: IconPiggyBank},
	Bonus:         {color: "#fcd34d", icon: IconStar, incomeOnly: true},
	Donations:     {color: "#fb7185", icon: IconHeart},
	Gift:          {color: "#fb7185", icon: IconGift},
	Other:         {color: "#94a3b8", icon: IconMore},
}

var iconPool = []Icon{
	IconUtensils, IconCar, IconShoppingBag, IconFilm, IconActivity, IconBriefcase,
	IconGift, IconMore, IconHome, IconCoffee, IconFuel, IconGasoline, IconSmartphone,
	IconBook, IconHeart, IconZap, IconMusic, IconWallet, IconShield, IconGlobe,
	IconPlane, IconPaw, IconBank, IconStar, IconUser, IconPiggyBank,
}

// Categories returns every category in display order.
func Categories() []Category {
	return append([]Category(nil), categoryOrder...)
}

// ParseCategory resolves a wire name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range categoryOrder {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", &ValidationError{Field: "category", Reason: "unknown category " + quote(s)}
}

func (c Category) Valid() bool {
	_, ok := categoryTable[c]
	return ok
}

// DisplayName is the human label; it doubles as the default description.
func (c Category) DisplayName() string {
	return string(c)
}

// Color is the hex color used for charts and badges.
func (c Category) Color() string {
	if info, ok := categoryTable[c]; ok {
		return info.color
	}
	return categoryTable[Other].color
}

// DefaultIcon is the icon shown unless the user picked another one.
func (c Category) DefaultIcon() Icon {
	if info, ok := categoryTable[c]; ok {
		return info.icon
	}
	return IconMore
}

// IncomeOnly reports categories that never carry spending, so budgets make
// no sense for them.
func (c Category) IncomeOnly() bool {
	return categoryTable[c].incomeOnly
}

// IconPool lists every icon a category can be assigned.
func IconPool() []Icon {
	return append([]Icon(nil), iconPool...)
}

func (i Icon) Valid() bool {
	for _, p := range iconPool {
		if p == i {
			return true
		}
	}
	return false
}

// IconSet maps categories to user-selected icons. Missing entries fall back
// to the category default.
type IconSet map[Category]Icon

// For returns the icon to render for c.
func (s IconSet) For(c Category) Icon {
	if icon, ok := s[c]; ok && icon.Valid() {
		return icon
	}
	return c.DefaultIcon()
}

// With returns a copy of s with c mapped to icon.
func (s IconSet) With(c Category, icon Icon) (IconSet, error) {
	if !c.Valid() {
		return nil, &ValidationError{Field: "category", Reason: "unknown category " + quote(string(c))}
	}
	if !icon.Valid() {
		return nil, &ValidationError{Field: "icon", Reason: "unknown icon " + quote(string(icon))}
	}
	out := make(IconSet, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[c] = icon
	return out, nil
}
