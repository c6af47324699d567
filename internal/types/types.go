package types

import "fmt"

// Record maps a column label to the cell value of one spreadsheet row.
type Record map[string]string

// Collection names one of the persisted record groups.
type Collection string

const (
	CollectionCustomer Collection = "customer"
	CollectionWarranty Collection = "warranty"
	CollectionClaim    Collection = "claim"
)

// Collections lists every collection in display order.
var Collections = []Collection{CollectionCustomer, CollectionWarranty, CollectionClaim}

// Key returns the storage key the collection is persisted under.
func (c Collection) Key() string {
	switch c {
	case CollectionCustomer:
		return "customerData"
	case CollectionWarranty:
		return "warrantyData"
	case CollectionClaim:
		return "claimData"
	}
	return ""
}

func (c Collection) Valid() bool {
	return c.Key() != ""
}

// ParseCollection resolves a collection from its name or storage key.
func ParseCollection(s string) (Collection, error) {
	for _, c := range Collections {
		if s == string(c) || s == c.Key() {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown collection: %s", s)
}

// Kind selects the fixed column layout of an exported spreadsheet.
type Kind string

const (
	KindWarranty Kind = "warranty"
	KindClaims   Kind = "claims"
)

// Collection returns the collection a kind is exported from.
func (k Kind) Collection() Collection {
	if k == KindClaims {
		return CollectionClaim
	}
	return CollectionWarranty
}

type ExportResult struct {
	Kind       Kind
	OutputFile string
	Records    int
	Bytes      int
}

type UploadResult struct {
	InputFile    string
	Collection   Collection
	ColumnsFound []string
	Records      []Record
}

type Counts struct {
	Customers  int
	Warranties int
	Claims     int
}
