package property

import (
	"time"

	"github.com/lazatu/realty-api/internal/auth"
	"github.com/lazatu/realty-api/internal/query"
)

// Filters is the registry for property list endpoints. The property_status
// handler needs the caller and the request clock, so the set is built per
// request.
func Filters(actor auth.Actor, now time.Time) query.FilterSet {
	return query.FilterSet{
		"offer_type":      filterOfferType,
		"property_type":   filterPropertyType,
		"min_price":       minFilter("p.price"),
		"max_price":       maxFilter("p.price"),
		"min_lot_size":    minFilter("p.lot_size"),
		"max_lot_size":    maxFilter("p.lot_size"),
		"min_bedroom":     minFilter("p.bedroom_count"),
		"min_bathroom":    minFilter("p.bathroom_count"),
		"min_garage":      minFilter("p.garage_count"),
		"name":            orLike("p.name"),
		"address":         orLike("p.address"),
		"building_name":   orLike("p.building_name"),
		"listing_id":      orLike("p.listing_id"),
		"created_by":      filterCreatedBy,
		"location_hash":   filterLocationHash,
		"property_status": filterPropertyStatus(actor, now),
	}
}

func filterOfferType(b *query.Builder, value string) {
	if value == "all" {
		return
	}
	b.Where(`EXISTS (
		SELECT 1 FROM property_offer_types ot
		WHERE ot.id = p.offer_type_id AND ot.name ILIKE ?
	)`, "%"+value+"%")
}

func filterPropertyType(b *query.Builder, value string) {
	if value == "all" {
		return
	}
	b.Where(`EXISTS (
		SELECT 1 FROM property_types pt
		WHERE pt.id = p.property_type_id AND pt.name ILIKE ?
	)`, "%"+value+"%")
}

func minFilter(column string) query.FilterFunc {
	return func(b *query.Builder, value string) {
		b.Where(column+" >= ?", query.Float(value))
	}
}

func maxFilter(column string) query.FilterFunc {
	return func(b *query.Builder, value string) {
		b.Where(column+" <= ?", query.Float(value))
	}
}

func orLike(column string) query.FilterFunc {
	return func(b *query.Builder, value string) {
		b.OrWhere(column+" ILIKE ?", "%"+value+"%")
	}
}

func filterCreatedBy(b *query.Builder, value string) {
	b.Where("p.created_by = ?", query.Int(value))
}

func filterLocationHash(b *query.Builder, value string) {
	b.Where("p.location_hash LIKE ?", value+"%")
}

// filterPropertyStatus gates listing visibility. Callers without a staff role
// only ever see published listings no matter what they ask for. Staff get the
// union of the recognized status words; a request carrying only unrecognized
// words deliberately matches nothing.
func filterPropertyStatus(actor auth.Actor, now time.Time) query.FilterFunc {
	return func(b *query.Builder, value string) {
		if !actor.Authenticated() || !actor.IsStaff() {
			b.Where("p.property_status_id = ?", int64(StatusPublished))
			return
		}

		known := map[string]bool{
			"published": true, "pending": true, "rejected": true,
			"closed": true, "expired": true,
		}

		var statuses []string
		for _, word := range query.CSV(value) {
			if known[word] {
				statuses = append(statuses, word)
			}
		}

		if len(statuses) == 0 {
			b.Where("1 = 0")
			return
		}

		for _, status := range statuses {
			switch status {
			case "published":
				b.OrWhere("(p.property_status_id = 1 AND p.expired_at > ?)", now)
			case "pending":
				b.OrWhere("p.property_status_id = 2")
			case "rejected":
				b.OrWhere("p.property_status_id = 3")
			case "closed":
				b.OrWhere("p.property_status_id = 4")
			case "expired":
				b.OrWhere("(p.property_status_id = 1 AND p.expired_at < ?)", now)
			}
		}
	}
}

// Sorts is the property sort registry. The distance sort is resolved by the
// caller because it needs the request's coordinates.
func Sorts() query.SortSet {
	return query.SortSet{
		"offer_type": func(b *query.Builder, dir string) {
			b.Join("LEFT JOIN property_offer_types pot ON p.offer_type_id = pot.id")
			b.OrderBy("pot.name", dir)
		},
		"price":      orderBy("p.price"),
		"developer":  orderBy("p.developer"),
		"created_at": orderBy("p.created_at"),
		"expired_at": orderBy("p.expired_at"),
	}
}

func orderBy(column string) query.SortFunc {
	return func(b *query.Builder, dir string) {
		b.OrderBy(column, dir)
	}
}

// DistanceSort orders by great-circle distance from the given point. Rows
// without coordinates fall back to geohash ordering so they cluster together
// at the end deterministically.
func DistanceSort(b *query.Builder, lat, lon float64) {
	b.OrderByExpr(`(
		6371 * acos(
			least(1.0, cos(radians(?)) * cos(radians(p.latitude)) *
			cos(radians(p.longitude) - radians(?)) +
			sin(radians(?)) * sin(radians(p.latitude)))
		)
	) ASC NULLS LAST`, lat, lon, lat)
	b.OrderBy("p.location_hash", "asc")
}
