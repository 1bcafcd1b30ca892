package schema

import (
	"fmt"
	"path/filepath"

	"github.com/rpasquini/airbnb/internal/clean"
	"github.com/rpasquini/airbnb/internal/geo"
)

// CellResolution is the fixed H3 resolution for the derived listing cell.
const CellResolution = 9

// PriceLimit is the ceiling applied to calendar price columns. Rows with
// price or adjusted_price strictly above the limit are dropped whole before
// reaching the store; a price equal to the limit is kept.
const PriceLimit = 10_000_000

// ConflictPolicy selects how the writer resolves an existing key.
type ConflictPolicy int

const (
	// UpdateAll overwrites every non-key column with the incoming values.
	UpdateAll ConflictPolicy = iota
	// DoNothing leaves the existing row untouched and drops the incoming one.
	DoNothing
)

// BuildFn turns a raw CSV record into values aligned with Dataset.Columns.
// Errors are parse errors: loud, column-scoped, and fatal to the stage.
type BuildFn func(idx HeaderIndex, r Raw) ([]any, error)

// Dataset describes one stage of the load: where rows come from, where they
// go, and how conflicts and filtering apply. New datasets can be added
// without touching the orchestration logic.
type Dataset struct {
	Name       string
	Path       string
	Table      string
	Columns    []string
	KeyColumns []string
	OnConflict ConflictPolicy
	Header     Contract
	ChunkSize  int
	Build      BuildFn

	// PriceColumns names the columns subject to PriceLimit. Empty means the
	// dataset is not threshold-filtered.
	PriceColumns []string
	PriceLimit   float64
}

var listingColumns = []string{
	"id", "name", "host_id", "host_name", "neighbourhood",
	"latitude", "longitude", "h3_cell_res9", "room_type", "price",
	"minimum_nights", "number_of_reviews", "last_review",
	"reviews_per_month", "calculated_host_listings_count",
	"availability_365", "number_of_reviews_ltm", "license",
}

// listingHeader is listingColumns minus the derived cell column.
var listingHeader = []string{
	"id", "name", "host_id", "host_name", "neighbourhood",
	"latitude", "longitude", "room_type", "price",
	"minimum_nights", "number_of_reviews", "last_review",
	"reviews_per_month", "calculated_host_listings_count",
	"availability_365", "number_of_reviews_ltm", "license",
}

var reviewColumns = []string{"listing_id", "date"}

var calendarColumns = []string{
	"listing_id", "date", "available", "price",
	"adjusted_price", "minimum_nights", "maximum_nights",
}

// Listings describes the small listings file: full-overwrite upsert on (id).
func Listings(dir string) Dataset {
	return Dataset{
		Name:       "listings",
		Path:       filepath.Join(dir, "listings.csv"),
		Table:      "airbnb.listings",
		Columns:    listingColumns,
		KeyColumns: []string{"id"},
		OnConflict: UpdateAll,
		Header:     Contract{Name: "listings", Columns: listingHeader},
		ChunkSize:  50_000,
		Build:      buildListing,
	}
}

// Reviews describes the small reviews file: insert-or-ignore on
// (listing_id, date).
func Reviews(dir string) Dataset {
	return Dataset{
		Name:       "reviews",
		Path:       filepath.Join(dir, "reviews.csv"),
		Table:      "airbnb.reviews",
		Columns:    reviewColumns,
		KeyColumns: []string{"listing_id", "date"},
		OnConflict: DoNothing,
		Header:     Contract{Name: "reviews", Columns: reviewColumns},
		ChunkSize:  50_000,
		Build:      buildReview,
	}
}

// Calendar describes the large gzip-compressed calendar file: chunked load,
// threshold-filtered, full-overwrite upsert on (listing_id, date).
func Calendar(dir string) Dataset {
	return Dataset{
		Name:         "calendar",
		Path:         filepath.Join(dir, "calendar.csv.gz"),
		Table:        "airbnb.calendar",
		Columns:      calendarColumns,
		KeyColumns:   []string{"listing_id", "date"},
		OnConflict:   UpdateAll,
		Header:       Contract{Name: "calendar", Columns: calendarColumns},
		ChunkSize:    100_000,
		Build:        buildCalendarDay,
		PriceColumns: []string{"price", "adjusted_price"},
		PriceLimit:   PriceLimit,
	}
}

// All returns the datasets in their fixed dependency order: reviews and
// calendar rows logically reference listing rows, so listings load first.
func All(dir string) []Dataset {
	return []Dataset{Listings(dir), Reviews(dir), Calendar(dir)}
}

func buildListing(idx HeaderIndex, r Raw) ([]any, error) {
	id, err := clean.Int(idx.Get(r, "id"))
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	lat, err := clean.Float(idx.Get(r, "latitude"))
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lon, err := clean.Float(idx.Get(r, "longitude"))
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	cell, err := geo.Cell(lat, lon, CellResolution)
	if err != nil {
		return nil, fmt.Errorf("h3_cell_res9: %w", err)
	}
	price, err := clean.Currency(idx.Get(r, "price"))
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	lastReview, err := clean.Date(idx.Get(r, "last_review"))
	if err != nil {
		return nil, fmt.Errorf("last_review: %w", err)
	}
	hostID, err := clean.NullInt(idx.Get(r, "host_id"))
	if err != nil {
		return nil, fmt.Errorf("host_id: %w", err)
	}
	rpm, err := clean.NullFloat(idx.Get(r, "reviews_per_month"))
	if err != nil {
		return nil, fmt.Errorf("reviews_per_month: %w", err)
	}

	l := Listing{
		ID:              id,
		Name:            clean.NullString(idx.Get(r, "name")),
		HostID:          hostID,
		HostName:        clean.NullString(idx.Get(r, "host_name")),
		Neighbourhood:   clean.NullString(idx.Get(r, "neighbourhood")),
		Latitude:        lat,
		Longitude:       lon,
		CellRes9:        cell,
		RoomType:        clean.NullString(idx.Get(r, "room_type")),
		Price:           price,
		LastReview:      lastReview,
		ReviewsPerMonth: rpm,
		License:         clean.NullString(idx.Get(r, "license")),
	}
	for _, c := range []struct {
		col string
		dst **int64
	}{
		{"minimum_nights", &l.MinimumNights},
		{"number_of_reviews", &l.NumberOfReviews},
		{"calculated_host_listings_count", &l.CalculatedHostListingsCount},
		{"availability_365", &l.Availability365},
		{"number_of_reviews_ltm", &l.NumberOfReviewsLTM},
	} {
		n, err := clean.NullInt(idx.Get(r, c.col))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.col, err)
		}
		*c.dst = n
	}
	return l.Values(), nil
}

func buildReview(idx HeaderIndex, r Raw) ([]any, error) {
	listingID, err := clean.Int(idx.Get(r, "listing_id"))
	if err != nil {
		return nil, fmt.Errorf("listing_id: %w", err)
	}
	date, err := clean.Date(idx.Get(r, "date"))
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	rev := Review{ListingID: listingID, Date: date}
	return rev.Values(), nil
}

func buildCalendarDay(idx HeaderIndex, r Raw) ([]any, error) {
	listingID, err := clean.Int(idx.Get(r, "listing_id"))
	if err != nil {
		return nil, fmt.Errorf("listing_id: %w", err)
	}
	date, err := clean.Date(idx.Get(r, "date"))
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	available, err := clean.Boolean(idx.Get(r, "available"))
	if err != nil {
		return nil, fmt.Errorf("available: %w", err)
	}
	price, err := clean.Currency(idx.Get(r, "price"))
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	adjusted, err := clean.Currency(idx.Get(r, "adjusted_price"))
	if err != nil {
		return nil, fmt.Errorf("adjusted_price: %w", err)
	}
	minNights, err := clean.NullInt(idx.Get(r, "minimum_nights"))
	if err != nil {
		return nil, fmt.Errorf("minimum_nights: %w", err)
	}
	maxNights, err := clean.NullInt(idx.Get(r, "maximum_nights"))
	if err != nil {
		return nil, fmt.Errorf("maximum_nights: %w", err)
	}

	day := CalendarDay{
		ListingID:     listingID,
		Date:          date,
		Available:     available,
		Price:         price,
		AdjustedPrice: adjusted,
		MinimumNights: minNights,
		MaximumNights: maxNights,
	}
	return day.Values(), nil
}
