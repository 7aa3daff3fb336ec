/*
dto.go - Data Transfer Objects for API communication

PURPOSE:
	Defines the JSON shapes the HTTP layer speaks, separate from domain types.
	DTOs render money as fixed two-decimal strings ("4840.00"), never floats,
	and timestamps as RFC3339. Conversion helpers at the bottom map domain
	structs to DTOs; request structs map the other way inside the handlers.

NAMING CONVENTION:
	- *DTO: Response types returned to clients
	- *Request: Request body types from clients

SEE ALSO:
	handlers.go - produces and consumes these types
	factory/split.go - SplitJSON, the wire form of a split rule
*/
package api

import (
	"sort"
	"time"

	"github.com/tejaperfect/expensiver1-sub001/analytics"
	"github.com/tejaperfect/expensiver1-sub001/engine"
	"github.com/tejaperfect/expensiver1-sub001/factory"
	"github.com/tejaperfect/expensiver1-sub001/groups"
)

// =============================================================================
// RESPONSE DTOS
// =============================================================================

// GroupDTO is a group without its member list.
type GroupDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at"`
}

// GroupDetailDTO is a group with its members, returned on create and get.
type GroupDetailDTO struct {
	GroupDTO
	Members []MemberDTO `json:"members"`
}

type MemberDTO struct {
	ID       string `json:"id"`
	GroupID  string `json:"group_id"`
	Name     string `json:"name"`
	JoinedAt string `json:"joined_at"`
}

// ExpenseDTO carries the amount as a decimal string and the split in its
// wire form, exactly as it was submitted.
type ExpenseDTO struct {
	ID          string            `json:"id"`
	GroupID     string            `json:"group_id"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
	Amount      string            `json:"amount"`
	Currency    string            `json:"currency"`
	PayerID     string            `json:"payer_id"`
	Split       factory.SplitJSON `json:"split"`
	SpentAt     string            `json:"spent_at"`
}

// ContributionDTO is the signed per-member effect of one expense. Entries
// sum to zero and are sorted by member ID.
type ContributionDTO struct {
	ExpenseID string            `json:"expense_id"`
	Currency  string            `json:"currency"`
	Entries   []MemberAmountDTO `json:"entries"`
}

// MemberAmountDTO is one member paired with a signed amount.
type MemberAmountDTO struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name,omitempty"`
	Amount   string `json:"amount"`
}

// BalanceDTO is the current net position of every group member, after
// paid settlements. Positive means the group owes the member.
type BalanceDTO struct {
	GroupID  string            `json:"group_id"`
	Currency string            `json:"currency"`
	Entries  []MemberAmountDTO `json:"entries"`
}

// SettlementRunDTO is one settle computation with its recommended transfers
// in payment order.
type SettlementRunDTO struct {
	ID           string          `json:"id"`
	GroupID      string          `json:"group_id"`
	RunAt        string          `json:"run_at"`
	ExpenseCount int             `json:"expense_count"`
	PaidCount    int             `json:"paid_count"`
	Transfers    []SettlementDTO `json:"transfers"`
}

type SettlementDTO struct {
	ID       string  `json:"id"`
	RunID    string  `json:"run_id"`
	GroupID  string  `json:"group_id"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Amount   string  `json:"amount"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
	PaidAt   *string `json:"paid_at,omitempty"`
}

// ReportDTO mirrors analytics.GroupReport with display-ready strings.
type ReportDTO struct {
	GroupID      string              `json:"group_id"`
	GroupName    string              `json:"group_name"`
	Currency     string              `json:"currency"`
	ExpenseCount int                 `json:"expense_count"`
	TotalSpent   string              `json:"total_spent"`
	PerMember    []MemberReportDTO   `json:"per_member"`
	ByCategory   []CategoryReportDTO `json:"by_category"`
}

type MemberReportDTO struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Paid     string `json:"paid"`
	Share    string `json:"share"`
	Net      string `json:"net"`
}

type CategoryReportDTO struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Total    string `json:"total"`
	Percent  string `json:"percent"`
}

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// REQUEST DTOS
// =============================================================================

type CreateGroupRequest struct {
	Name     string   `json:"name"`
	Currency string   `json:"currency"`
	Members  []string `json:"members"`
}

type AddMemberRequest struct {
	Name string `json:"name"`
}

// CreateExpenseRequest submits one expense. Amount is a decimal string in
// the group's currency. SpentAt is optional RFC3339; empty means now.
type CreateExpenseRequest struct {
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Amount      string            `json:"amount"`
	PayerID     string            `json:"payer_id"`
	Split       factory.SplitJSON `json:"split"`
	SpentAt     string            `json:"spent_at"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

// amountString renders an amount as a fixed two-decimal string.
func amountString(a engine.Amount) string {
	return a.Decimal().StringFixed(2)
}

func timeString(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toGroupDTO(g groups.Group) GroupDTO {
	return GroupDTO{
		ID:        string(g.ID),
		Name:      g.Name,
		Currency:  string(g.Currency),
		CreatedAt: timeString(g.CreatedAt),
	}
}

func toGroupDetailDTO(g groups.Group, members []groups.Member) GroupDetailDTO {
	return GroupDetailDTO{
		GroupDTO: toGroupDTO(g),
		Members:  toMemberDTOs(members),
	}
}

func toMemberDTO(m groups.Member) MemberDTO {
	return MemberDTO{
		ID:       string(m.ID),
		GroupID:  string(m.GroupID),
		Name:     m.Name,
		JoinedAt: timeString(m.JoinedAt),
	}
}

func toMemberDTOs(members []groups.Member) []MemberDTO {
	out := make([]MemberDTO, len(members))
	for i, m := range members {
		out[i] = toMemberDTO(m)
	}
	return out
}

func toExpenseDTO(splits *factory.SplitFactory, e engine.Expense) (ExpenseDTO, error) {
	sj, err := splits.ToJSON(e.Split)
	if err != nil {
		return ExpenseDTO{}, err
	}
	return ExpenseDTO{
		ID:          string(e.ID),
		GroupID:     string(e.GroupID),
		Description: e.Description,
		Category:    e.Category,
		Amount:      amountString(e.Amount),
		Currency:    string(e.Amount.Currency),
		PayerID:     string(e.PayerID),
		Split:       sj,
		SpentAt:     timeString(e.At),
	}, nil
}

// memberAmountEntries flattens a member-to-amount map into a slice sorted
// by member ID, attaching display names where known.
func memberAmountEntries(amounts map[engine.MemberID]engine.Amount, names map[engine.MemberID]string) []MemberAmountDTO {
	out := make([]MemberAmountDTO, 0, len(amounts))
	for id, a := range amounts {
		out = append(out, MemberAmountDTO{
			MemberID: string(id),
			Name:     names[id],
			Amount:   amountString(a),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out
}

// memberNames indexes members by ID for display lookups.
func memberNames(members []groups.Member) map[engine.MemberID]string {
	names := make(map[engine.MemberID]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}
	return names
}

func toBalanceDTO(g groups.Group, members []groups.Member, b engine.Balance) BalanceDTO {
	return BalanceDTO{
		GroupID:  string(g.ID),
		Currency: string(g.Currency),
		Entries:  memberAmountEntries(b, memberNames(members)),
	}
}

func toSettlementDTO(r groups.SettlementRecord) SettlementDTO {
	dto := SettlementDTO{
		ID:       string(r.ID),
		RunID:    string(r.RunID),
		GroupID:  string(r.GroupID),
		From:     string(r.From),
		To:       string(r.To),
		Amount:   amountString(r.Amount),
		Currency: string(r.Amount.Currency),
		Status:   string(r.Status),
	}
	if r.PaidAt != nil {
		s := timeString(*r.PaidAt)
		dto.PaidAt = &s
	}
	return dto
}

func toSettlementRunDTO(run groups.SettlementRun, records []groups.SettlementRecord) SettlementRunDTO {
	transfers := make([]SettlementDTO, len(records))
	for i, r := range records {
		transfers[i] = toSettlementDTO(r)
	}
	return SettlementRunDTO{
		ID:           string(run.ID),
		GroupID:      string(run.GroupID),
		RunAt:        timeString(run.At),
		ExpenseCount: run.ExpenseCount,
		PaidCount:    run.PaidCount,
		Transfers:    transfers,
	}
}

func toReportDTO(r *analytics.GroupReport) ReportDTO {
	perMember := make([]MemberReportDTO, len(r.PerMember))
	for i, m := range r.PerMember {
		perMember[i] = MemberReportDTO{
			MemberID: string(m.MemberID),
			Name:     m.Name,
			Paid:     amountString(m.Paid),
			Share:    amountString(m.Share),
			Net:      amountString(m.Net),
		}
	}
	byCategory := make([]CategoryReportDTO, len(r.ByCategory))
	for i, c := range r.ByCategory {
		byCategory[i] = CategoryReportDTO{
			Category: c.Category,
			Count:    c.Count,
			Total:    amountString(c.Total),
			Percent:  c.Percent.StringFixed(2),
		}
	}
	return ReportDTO{
		GroupID:      string(r.GroupID),
		GroupName:    r.GroupName,
		Currency:     string(r.Currency),
		ExpenseCount: r.ExpenseCount,
		TotalSpent:   amountString(r.TotalSpent),
		PerMember:    perMember,
		ByCategory:   byCategory,
	}
}
