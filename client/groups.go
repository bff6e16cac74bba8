package client

import (
	"context"
	"net/http"
	"net/url"
)

const groupsPath = "/Groups"

type Group struct {
	ID          int    `json:"Id"`
	Name        string `json:"Name"`
	GUID        string `json:"Guid,omitempty"`
	ParentID    int    `json:"ParentId,omitempty"`
	GroupType   string `json:"GroupType,omitempty"`
	IsAutoJoin  bool   `json:"IsAutoJoin,omitempty"`
	AutoJoinSQL string `json:"AutoJoinSql,omitempty"`
	IsTemplate  bool   `json:"IsTemplate,omitempty"`
	TemplateID  int    `json:"TemplateId,omitempty"`
	FullPath    string `json:"FullPath,omitempty"`
	MemberCount int    `json:"MemberCount,omitempty"`
	DateCreated string `json:"DateCreated,omitempty"`
	Comment     string `json:"Comment,omitempty"`
}

type GroupListOptions struct {
	ListOptions
	GroupType string
	ParentID  int
	Name      string
}

func (o GroupListOptions) values() url.Values {
	q := o.ListOptions.values()
	setString(q, "groupType", o.GroupType)
	setInt(q, "parentId", o.ParentID)
	setString(q, "name", o.Name)
	return q
}

type GroupMember struct {
	ID         int    `json:"Id"`
	GroupID    int    `json:"GroupId"`
	MemberType string `json:"MemberType"`
	MemberID   int    `json:"MemberId"`
	MemberName string `json:"MemberName,omitempty"`
	DateAdded  string `json:"DateAdded,omitempty"`
}

type GroupMemberListOptions struct {
	ListOptions
	MemberType string
}

func (o GroupMemberListOptions) values() url.Values {
	q := o.ListOptions.values()
	setString(q, "memberType", o.MemberType)
	return q
}

type memberIDs struct {
	MemberIDs []int `json:"MemberIds"`
}

type GroupsService service

func (s *GroupsService) List(ctx context.Context, opts GroupListOptions) (*ListResponse[Group], error) {
	return list[Group](ctx, s.r, groupsPath, opts.values())
}

func (s *GroupsService) ListAll(opts GroupListOptions) *Pager[Group] {
	return listAll[Group](s.r, groupsPath, opts.values(), opts.PageSize)
}

func (s *GroupsService) Get(ctx context.Context, id int) (*Group, error) {
	return send[Group](ctx, s.r, http.MethodGet, idPath(groupsPath, id), nil)
}

func (s *GroupsService) Members(ctx context.Context, groupID int, opts GroupMemberListOptions) (*ListResponse[GroupMember], error) {
	return list[GroupMember](ctx, s.r, idPath(groupsPath, groupID, "Members"), opts.values())
}

func (s *GroupsService) MembersAll(groupID int, opts GroupMemberListOptions) *Pager[GroupMember] {
	return listAll[GroupMember](s.r, idPath(groupsPath, groupID, "Members"), opts.values(), opts.PageSize)
}

func (s *GroupsService) AddMembers(ctx context.Context, groupID int, ids []int) error {
	return do(ctx, s.r, http.MethodPost, idPath(groupsPath, groupID, "Members"), memberIDs{ids})
}

// RemoveMembers sends a DELETE with the member ids in the body.
func (s *GroupsService) RemoveMembers(ctx context.Context, groupID int, ids []int) error {
	return do(ctx, s.r, http.MethodDelete, idPath(groupsPath, groupID, "Members"), memberIDs{ids})
}
