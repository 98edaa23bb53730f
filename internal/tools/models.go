package tools

// Argument types. Field tags drive both the advertised input schema and
// argument validation.

type PageArgs struct {
	Page  *int `json:"page,omitempty" jsonschema:"minimum=1" jsonschema_description:"Page number to fetch (starts at 1)"`
	Count *int `json:"count,omitempty" jsonschema:"minimum=1,maximum=100" jsonschema_description:"Number of items per page (max 100)"`
}

type ListFilteredArgs struct {
	PageArgs
	Member *string `json:"member,omitempty" jsonschema:"minLength=1" jsonschema_description:"Only return items linked to this member id"`
	Circle *string `json:"circle,omitempty" jsonschema:"minLength=1" jsonschema_description:"Only return items belonging to this circle id"`
}

type GetCircleArgs struct {
	CircleID string `json:"circleId" jsonschema:"minLength=1" jsonschema_description:"Circle identifier"`
}

type GetRoleArgs struct {
	RoleID string `json:"roleId" jsonschema:"minLength=1" jsonschema_description:"Role identifier"`
}

type GetMeetingArgs struct {
	MeetingID string `json:"meetingId" jsonschema:"minLength=1" jsonschema_description:"Meeting identifier"`
}

type GetMemberFeedArgs struct {
	MemberID     string  `json:"memberId" jsonschema:"minLength=1" jsonschema_description:"Member identifier"`
	ActivityType *string `json:"activityType,omitempty" jsonschema_description:"Only return activity of this type"`
	Event        *string `json:"event,omitempty" jsonschema_description:"Only return this event kind"`
	MinTime      *string `json:"minTime,omitempty" jsonschema_description:"Lower time bound accepted by the Holaspirit API"`
	MaxTime      *string `json:"maxTime,omitempty" jsonschema_description:"Upper time bound accepted by the Holaspirit API"`
	Count        *int    `json:"count,omitempty" jsonschema:"minimum=1,maximum=100" jsonschema_description:"Maximum number of feed items (max 100)"`
}

type GetTensionsArgs struct {
	MeetingIDs []string `json:"meetingIds" jsonschema_description:"Meeting identifiers whose tensions should be collected"`
}

type SearchMemberArgs struct {
	Email string `json:"email" jsonschema:"format=email" jsonschema_description:"Email address of the member to find"`
}

// Upstream entities. Only the identifying fields are required; anything the
// API adds beyond these is passed through validation and dropped on decode.

type Task struct {
	ID          string  `json:"id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
}

type Metric struct {
	ID          string  `json:"id"`
	Description *string `json:"description,omitempty"`
	Frequency   *string `json:"frequency,omitempty"`
	Circle      *string `json:"circle,omitempty"`
}

type Circle struct {
	ID           string  `json:"id"`
	Name         string  `json:"name,omitempty"`
	Purpose      *string `json:"purpose,omitempty"`
	ParentCircle *string `json:"parentCircle,omitempty"`
}

type CircleLinked struct {
	Roles []Role `json:"roles,omitempty"`
}

type CircleDetail struct {
	Circle
	Linked CircleLinked `json:"linked"`
}

type Role struct {
	ID      string  `json:"id"`
	Name    string  `json:"name,omitempty"`
	Purpose *string `json:"purpose,omitempty"`
	Circle  *string `json:"circle,omitempty"`
	Type    *string `json:"type,omitempty"`
}

type Domain struct {
	ID          string  `json:"id"`
	Description *string `json:"description,omitempty"`
	Role        *string `json:"role,omitempty"`
	Circle      *string `json:"circle,omitempty"`
}

type Policy struct {
	ID          string  `json:"id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Circle      *string `json:"circle,omitempty"`
}

type Meeting struct {
	ID        string  `json:"id"`
	Circle    *string `json:"circle,omitempty"`
	Type      *string `json:"type,omitempty"`
	Status    *string `json:"status,omitempty"`
	StartDate *string `json:"startDate,omitempty"`
	EndDate   *string `json:"endDate,omitempty"`
}

type MeetingLinked struct {
	Tensions []Tension `json:"tensions,omitempty"`
}

type MeetingDetail struct {
	Meeting
	Linked MeetingLinked `json:"linked"`
}

type Tension struct {
	ID          string  `json:"id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Type        *string `json:"type,omitempty"`
}

// MeetingTension is a tension tagged with the meeting it was fetched for.
type MeetingTension struct {
	Tension
	MeetingID string `json:"meetingId"`
}

type TensionFailure struct {
	MeetingID string `json:"meetingId"`
	Error     string `json:"error"`
}

type TensionsResult struct {
	Tensions []MeetingTension `json:"tensions"`
	Failures []TensionFailure `json:"failures"`
}

type Member struct {
	ID          string  `json:"id"`
	Email       string  `json:"email,omitempty"`
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
}

type FeedItem struct {
	ID           string  `json:"id,omitempty"`
	ActivityType *string `json:"activityType,omitempty"`
	Event        *string `json:"event,omitempty"`
	CreatedAt    *string `json:"createdAt,omitempty"`
}
