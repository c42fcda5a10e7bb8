package entity

import "time"

// EvaluationContext describes one sale event being priced: the catalog item,
// where it is being sold, and when. Weekday and MinuteOfDay are resolved
// from the evaluation instant in local wall clock so the engine never has to
// touch the clock itself.
type EvaluationContext struct {
	ProductID   int64   `json:"product_id"`
	CategoryID  int64   `json:"category_id"`
	TagIDs      []int64 `json:"tag_ids"`
	ZoneID      int64   `json:"zone_id"`
	IsRetail    bool    `json:"is_retail"`
	BasePrice   float64 `json:"base_price"`
	EvalTime    int64   `json:"eval_time"` // epoch millis
	Weekday     int     `json:"weekday"`   // 0 = Sunday
	MinuteOfDay int     `json:"minute_of_day"`
}

// NewEvaluationContext builds a context for the given instant, resolving the
// weekday and minute-of-day fields from local wall clock.
func NewEvaluationContext(productID, categoryID int64, tagIDs []int64, zoneID int64, isRetail bool, basePrice float64, at time.Time) EvaluationContext {
	return EvaluationContext{
		ProductID:   productID,
		CategoryID:  categoryID,
		TagIDs:      tagIDs,
		ZoneID:      zoneID,
		IsRetail:    isRetail,
		BasePrice:   basePrice,
		EvalTime:    at.UnixMilli(),
		Weekday:     int(at.Weekday()),
		MinuteOfDay: at.Hour()*60 + at.Minute(),
	}
}

// HasTag reports whether the sale item carries the given tag.
func (c EvaluationContext) HasTag(tagID int64) bool {
	for _, t := range c.TagIDs {
		if t == tagID {
			return true
		}
	}
	return false
}
