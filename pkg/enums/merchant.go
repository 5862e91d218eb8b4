package enums

import "fmt"

// MerchantCategory maps to the merchant_category_enum enum in Postgres.
type MerchantCategory string

const (
	MerchantCategoryRestaurant  MerchantCategory = "RESTAURANT"
	MerchantCategoryGrocery     MerchantCategory = "GROCERY"
	MerchantCategoryPharmacy    MerchantCategory = "PHARMACY"
	MerchantCategoryElectronics MerchantCategory = "ELECTRONICS"
	MerchantCategoryFashion     MerchantCategory = "FASHION"
	MerchantCategoryServices    MerchantCategory = "SERVICES"
	MerchantCategoryOther       MerchantCategory = "OTHER"
)

var validMerchantCategories = []MerchantCategory{
	MerchantCategoryRestaurant,
	MerchantCategoryGrocery,
	MerchantCategoryPharmacy,
	MerchantCategoryElectronics,
	MerchantCategoryFashion,
	MerchantCategoryServices,
	MerchantCategoryOther,
}

// String implements fmt.Stringer.
func (c MerchantCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known MerchantCategory.
func (c MerchantCategory) IsValid() bool {
	for _, candidate := range validMerchantCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseMerchantCategory converts raw input into a MerchantCategory.
func ParseMerchantCategory(value string) (MerchantCategory, error) {
	for _, candidate := range validMerchantCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid merchant category %q", value)
}
