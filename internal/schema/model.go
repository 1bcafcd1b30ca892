package schema

import "time"

// Listing is one row of airbnb.listings. Nullable columns are pointers; the
// H3 cell is always re-derived from the current coordinates during the load,
// never carried over from a previous run.
type Listing struct {
	ID                          int64      `db:"id"`
	Name                        *string    `db:"name"`
	HostID                      *int64     `db:"host_id"`
	HostName                    *string    `db:"host_name"`
	Neighbourhood               *string    `db:"neighbourhood"`
	Latitude                    float64    `db:"latitude"`
	Longitude                   float64    `db:"longitude"`
	CellRes9                    string     `db:"h3_cell_res9"`
	RoomType                    *string    `db:"room_type"`
	Price                       *float64   `db:"price"`
	MinimumNights               *int64     `db:"minimum_nights"`
	NumberOfReviews             *int64     `db:"number_of_reviews"`
	LastReview                  *time.Time `db:"last_review"`
	ReviewsPerMonth             *float64   `db:"reviews_per_month"`
	CalculatedHostListingsCount *int64     `db:"calculated_host_listings_count"`
	Availability365             *int64     `db:"availability_365"`
	NumberOfReviewsLTM          *int64     `db:"number_of_reviews_ltm"`
	License                     *string    `db:"license"`
}

// Values flattens the listing in listing column order.
func (l *Listing) Values() []any {
	return []any{
		l.ID,
		np(l.Name),
		np(l.HostID),
		np(l.HostName),
		np(l.Neighbourhood),
		l.Latitude,
		l.Longitude,
		l.CellRes9,
		np(l.RoomType),
		np(l.Price),
		np(l.MinimumNights),
		np(l.NumberOfReviews),
		np(l.LastReview),
		np(l.ReviewsPerMonth),
		np(l.CalculatedHostListingsCount),
		np(l.Availability365),
		np(l.NumberOfReviewsLTM),
		np(l.License),
	}
}

// Review is one row of airbnb.reviews. Insert-only: a duplicate
// (listing_id, date) pair is silently dropped, never merged.
type Review struct {
	ListingID int64      `db:"listing_id"`
	Date      *time.Time `db:"date"`
}

func (r *Review) Values() []any {
	return []any{r.ListingID, np(r.Date)}
}

// CalendarDay is one row of airbnb.calendar, keyed by (listing_id, date).
type CalendarDay struct {
	ListingID     int64      `db:"listing_id"`
	Date          *time.Time `db:"date"`
	Available     bool       `db:"available"`
	Price         *float64   `db:"price"`
	AdjustedPrice *float64   `db:"adjusted_price"`
	MinimumNights *int64     `db:"minimum_nights"`
	MaximumNights *int64     `db:"maximum_nights"`
}

func (c *CalendarDay) Values() []any {
	return []any{
		c.ListingID,
		np(c.Date),
		c.Available,
		np(c.Price),
		np(c.AdjustedPrice),
		np(c.MinimumNights),
		np(c.MaximumNights),
	}
}

// np dereferences an optional field, mapping nil pointers to untyped nil so
// absent values reach the driver (and the row filter) as SQL NULL.
func np[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
