package dto

// HeartbeatRequest is sent by clients every 30 seconds; location fields are
// optional and only refresh location_updated_at when present.
type HeartbeatRequest struct {
	Latitude   *float64          `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude  *float64          `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	DeviceInfo map[string]string `json:"device_info"`
}

type OnlineUserResponse struct {
	UserID            string   `json:"user_id"`
	FullName          string   `json:"full_name,omitempty"`
	LastSeen          string   `json:"last_seen"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	LocationUpdatedAt *string  `json:"location_updated_at"`
}

type OnlineUsersResponse struct {
	Count int                  `json:"count"`
	Users []OnlineUserResponse `json:"users"`
}
