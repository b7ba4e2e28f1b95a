package domain

// timeLayout is the wire format for observation timestamps. Times are
// naive local (HKT) with minute precision.
const timeLayout = "2006-01-02 15:04"

// Event is one tropical cyclone warning event ready for classification:
// its identity, the raw station readings, and the officially declared
// signal windows. Thresholds, when set, override the engine defaults
// for this event only.
type Event struct {
	ID         string           `json:"event_id"`
	Name       string           `json:"name,omitempty"`
	Year       int              `json:"year,omitempty"`
	Readings   []StationReading `json:"readings"`
	Windows    EventWindows     `json:"windows"`
	Thresholds *Thresholds      `json:"thresholds,omitempty"`
}
