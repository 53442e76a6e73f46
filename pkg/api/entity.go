package api

// EntityType имя коллекции на сервере; совпадает с сегментом пути /{type}
type EntityType string

const (
	EntityDestinations EntityType = "destinations"
	EntityActivities   EntityType = "activities"
	EntityPackages     EntityType = "packages"
	EntityBookings     EntityType = "bookings"
)

// KnownEntityTypes returns the catalog collections in display order.
func KnownEntityTypes() []EntityType {
	return []EntityType{
		EntityDestinations,
		EntityActivities,
		EntityPackages,
		EntityBookings,
	}
}

func (t EntityType) String() string {
	return string(t)
}
