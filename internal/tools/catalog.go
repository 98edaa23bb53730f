package tools

import "github.com/arreyder/holaspirit-mcp/internal/holaspirit"

const (
	NameListTasks     = "holaspirit_list_tasks"
	NameListMetrics   = "holaspirit_list_metrics"
	NameListCircles   = "holaspirit_list_circles"
	NameGetCircle     = "holaspirit_get_circle"
	NameListRoles     = "holaspirit_list_roles"
	NameGetRole       = "holaspirit_get_role"
	NameListDomains   = "holaspirit_list_domains"
	NameListPolicies  = "holaspirit_list_policies"
	NameListMeetings  = "holaspirit_list_meetings"
	NameGetMeeting    = "holaspirit_get_meeting"
	NameGetMemberFeed = "holaspirit_get_member_feed"
	NameGetTensions   = "holaspirit_get_tensions"
	NameSearchMember  = "holaspirit_search_member"
)

const (
	pathTasks      = "/api/organizations/{organization_id}/tasks"
	pathMetrics    = "/api/organizations/{organization_id}/metrics"
	pathCircles    = "/api/organizations/{organization_id}/circles"
	pathCircle     = "/api/organizations/{organization_id}/circles/{circle_id}"
	pathRoles      = "/api/organizations/{organization_id}/roles"
	pathRole       = "/api/organizations/{organization_id}/roles/{role_id}"
	pathDomains    = "/api/organizations/{organization_id}/domains"
	pathPolicies   = "/api/organizations/{organization_id}/policies"
	pathMeetings   = "/api/organizations/{organization_id}/meetings"
	pathMeeting    = "/api/organizations/{organization_id}/meetings/{meeting_id}"
	pathMemberFeed = "/api/organizations/{organization_id}/members/{member_id}/feed"
	pathTensions   = "/api/organizations/{organization_id}/tensions"
	pathMembers    = "/api/organizations/{organization_id}/members"
)

// Catalog builds every Holaspirit tool bound to acc, in listing order.
func Catalog(acc holaspirit.Accessor) []Tool {
	return []Tool{
		listTool[PageArgs, Task](acc, NameListTasks, "List all tasks in the organization", pathTasks, "Tasks"),
		listTool[PageArgs, Metric](acc, NameListMetrics, "List all metrics in the organization", pathMetrics, "Metrics"),
		listTool[ListFilteredArgs, Circle](acc, NameListCircles, "List all circles in the organization", pathCircles, "Circles"),
		getCircleTool(acc),
		listTool[ListFilteredArgs, Role](acc, NameListRoles, "List all roles in the organization", pathRoles, "Roles"),
		getRoleTool(acc),
		listTool[PageArgs, Domain](acc, NameListDomains, "List all domains in the organization", pathDomains, "Domains"),
		listTool[PageArgs, Policy](acc, NameListPolicies, "List all policies in the organization", pathPolicies, "Policies"),
		listTool[PageArgs, Meeting](acc, NameListMeetings, "List all meetings in the organization", pathMeetings, "Meetings"),
		getMeetingTool(acc),
		getMemberFeedTool(acc),
		getTensionsTool(acc),
		searchMemberTool(acc),
	}
}

// NewCatalogRegistry is Catalog followed by NewRegistry.
func NewCatalogRegistry(acc holaspirit.Accessor) (*Registry, error) {
	return NewRegistry(Catalog(acc)...)
}

func orgParams(acc holaspirit.Accessor, kv ...string) map[string]string {
	params := map[string]string{"organization_id": acc.OrganizationID}
	for i := 0; i+1 < len(kv); i += 2 {
		params[kv[i]] = kv[i+1]
	}
	return params
}
