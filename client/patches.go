package client

import (
	"context"
	"net/http"
	"net/url"
)

const patchesPath = "/Patches"

type Patch struct {
	ID           int    `json:"Id"`
	Title        string `json:"Title"`
	KBArticle    string `json:"KBArticle,omitempty"`
	Description  string `json:"Description,omitempty"`
	BulletinID   string `json:"BulletinId,omitempty"`
	Category     string `json:"Category,omitempty"`
	Product      string `json:"Product,omitempty"`
	Severity     string `json:"Severity,omitempty"`
	ReleaseDate  string `json:"ReleaseDate,omitempty"`
	IsApproved   bool   `json:"IsApproved,omitempty"`
	ApprovedBy   string `json:"ApprovedBy,omitempty"`
	ApprovalDate string `json:"ApprovalDate,omitempty"`
	IsSuperseded bool   `json:"IsSuperseded,omitempty"`
	SupersededBy int    `json:"SupersededBy,omitempty"`
	DownloadSize int64  `json:"DownloadSize,omitempty"`
	DownloadURL  string `json:"DownloadUrl,omitempty"`
}

type PatchListOptions struct {
	ListOptions
	IsApproved       *bool
	Category         string
	Severity         string
	Product          string
	Title            string
	ReleaseDateStart string
	ReleaseDateEnd   string
}

func (o PatchListOptions) values() url.Values {
	q := o.ListOptions.values()
	setBool(q, "isApproved", o.IsApproved)
	setString(q, "category", o.Category)
	setString(q, "severity", o.Severity)
	setString(q, "product", o.Product)
	setString(q, "title", o.Title)
	setString(q, "releaseDateStart", o.ReleaseDateStart)
	setString(q, "releaseDateEnd", o.ReleaseDateEnd)
	return q
}

type PatchApproval struct {
	PatchIDs []int  `json:"PatchIds"`
	Notes    string `json:"Notes,omitempty"`
}

// PatchApprovalResult is returned by both approve and deny.
type PatchApprovalResult struct {
	Count            int   `json:"Count"`
	ApprovedPatchIDs []int `json:"ApprovedPatchIds"`
	FailedPatchIDs   []int `json:"FailedPatchIds,omitempty"`
}

type PatchInstall struct {
	ComputerIDs        []int `json:"ComputerIds"`
	PatchIDs           []int `json:"PatchIds"`
	ForceReboot        bool  `json:"ForceReboot,omitempty"`
	RebootDelayMinutes int   `json:"RebootDelayMinutes,omitempty"`
}

type PatchInstallJob struct {
	JobID       string `json:"JobId"`
	ComputerIDs []int  `json:"ComputerIds"`
	PatchIDs    []int  `json:"PatchIds"`
	Status      string `json:"Status"`
	Message     string `json:"Message,omitempty"`
}

type PatchStatistics struct {
	TotalPatches            int            `json:"TotalPatches"`
	ApprovedPatches         int            `json:"ApprovedPatches"`
	PendingApproval         int            `json:"PendingApproval"`
	ComputersNeedingPatches int            `json:"ComputersNeedingPatches"`
	BySeverity              map[string]int `json:"BySeverity"`
}

// ComputerPatch is the install state of one patch on one computer.
type ComputerPatch struct {
	ID              int    `json:"Id"`
	ComputerID      int    `json:"ComputerId"`
	ComputerName    string `json:"ComputerName,omitempty"`
	PatchID         int    `json:"PatchId"`
	PatchTitle      string `json:"PatchTitle,omitempty"`
	Status          string `json:"Status"`
	InstallDate     string `json:"InstallDate,omitempty"`
	LastAttemptDate string `json:"LastAttemptDate,omitempty"`
	ErrorMessage    string `json:"ErrorMessage,omitempty"`
}

type ComputerPatchListOptions struct {
	ListOptions
	ComputerID int
	PatchID    int
	Status     string
	ClientID   int
}

func (o ComputerPatchListOptions) values() url.Values {
	q := o.ListOptions.values()
	setInt(q, "computerId", o.ComputerID)
	setInt(q, "patchId", o.PatchID)
	setString(q, "status", o.Status)
	setInt(q, "clientId", o.ClientID)
	return q
}

type PatchesService service

func (s *PatchesService) List(ctx context.Context, opts PatchListOptions) (*ListResponse[Patch], error) {
	return list[Patch](ctx, s.r, patchesPath, opts.values())
}

func (s *PatchesService) ListAll(opts PatchListOptions) *Pager[Patch] {
	return listAll[Patch](s.r, patchesPath, opts.values(), opts.PageSize)
}

func (s *PatchesService) Get(ctx context.Context, id int) (*Patch, error) {
	return send[Patch](ctx, s.r, http.MethodGet, idPath(patchesPath, id), nil)
}

func (s *PatchesService) Approve(ctx context.Context, ids []int, notes string) (*PatchApprovalResult, error) {
	return send[PatchApprovalResult](ctx, s.r, http.MethodPost, patchesPath+"/Approve", PatchApproval{PatchIDs: ids, Notes: notes})
}

func (s *PatchesService) Deny(ctx context.Context, ids []int, notes string) (*PatchApprovalResult, error) {
	return send[PatchApprovalResult](ctx, s.r, http.MethodPost, patchesPath+"/Deny", PatchApproval{PatchIDs: ids, Notes: notes})
}

func (s *PatchesService) Install(ctx context.Context, req PatchInstall) (*PatchInstallJob, error) {
	return send[PatchInstallJob](ctx, s.r, http.MethodPost, patchesPath+"/Install", req)
}

func (s *PatchesService) Statistics(ctx context.Context) (*PatchStatistics, error) {
	return send[PatchStatistics](ctx, s.r, http.MethodGet, patchesPath+"/Statistics", nil)
}

func (s *PatchesService) ComputerPatches(ctx context.Context, opts ComputerPatchListOptions) (*ListResponse[ComputerPatch], error) {
	return list[ComputerPatch](ctx, s.r, patchesPath+"/ComputerPatches", opts.values())
}

func (s *PatchesService) ComputerPatchesAll(opts ComputerPatchListOptions) *Pager[ComputerPatch] {
	return listAll[ComputerPatch](s.r, patchesPath+"/ComputerPatches", opts.values(), opts.PageSize)
}
