// Package models holds the work-record data model shared by the local
// service layer and the sync client.
package models

import "time"

type WorkType string

const (
	WorkTypePool        WorkType = "piscina"
	WorkTypeMaintenance WorkType = "manutencao"
	WorkTypeFault       WorkType = "avaria"
	WorkTypeInstall     WorkType = "montagem"
)

type WorkStatus string

const (
	WorkStatusPending    WorkStatus = "pendente"
	WorkStatusInProgress WorkStatus = "em_progresso"
	WorkStatusDone       WorkStatus = "concluida"
)

// Work is one field-service job sheet.
type Work struct {
	ID                 string     `json:"id"`
	WorkSheetNumber    string     `json:"workSheetNumber"`
	Type               WorkType   `json:"type"`
	ClientName         string     `json:"clientName"`
	Address            string     `json:"address"`
	Contact            string     `json:"contact"`
	EntryTime          string     `json:"entryTime"`
	ExitTime           string     `json:"exitTime,omitempty"`
	Status             WorkStatus `json:"status"`
	Vehicles           []string   `json:"vehicles"`
	Technicians        []string   `json:"technicians"`
	AssignedUsers      []string   `json:"assignedUsers"`
	Observations       string     `json:"observations"`
	WorkPerformed      string     `json:"workPerformed"`
	WorkSheetCompleted bool       `json:"workSheetCompleted"`
	CreatedBy          string     `json:"createdBy"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// CreateWorkInput is what the creation flow collects.
type CreateWorkInput struct {
	WorkSheetNumber    string
	Type               WorkType
	ClientName         string
	Address            string
	Contact            string
	EntryTime          string
	ExitTime           string
	Status             WorkStatus
	Vehicles           []string
	Technicians        []string
	AssignedUsers      []string
	Observations       string
	WorkPerformed      string
	WorkSheetCompleted bool
}

// DashboardStats summarizes the local work list.
type DashboardStats struct {
	TotalWorks        int `json:"totalWorks"`
	PendingWorks      int `json:"pendingWorks"`
	InProgressWorks   int `json:"inProgressWorks"`
	CompletedWorks    int `json:"completedWorks"`
	WorkSheetsPending int `json:"workSheetsPending"`
}
