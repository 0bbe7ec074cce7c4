package dto

import (
	"time"

	"agrohire/internal/domain"
)

type Booking struct {
	ID                 string     `json:"id"`
	BookingNumber      string     `json:"bookingNumber"`
	UserID             string     `json:"userId"`
	EquipmentID        string     `json:"equipmentId"`
	StartDate          time.Time  `json:"startDate"`
	EndDate            time.Time  `json:"endDate"`
	ActualStartDate    *time.Time `json:"actualStartDate,omitempty"`
	ActualEndDate      *time.Time `json:"actualEndDate,omitempty"`
	DurationHours      int        `json:"durationHours"`
	TotalAmountCents   int64      `json:"totalAmountCents"`
	DepositAmountCents int64      `json:"depositAmountCents,omitempty"`
	Status             string     `json:"status"`
	Approved           bool       `json:"approved"`
	PickupLocation     string     `json:"pickupLocation,omitempty"`
	DeliveryLocation   string     `json:"deliveryLocation,omitempty"`
	RequiresDelivery   bool       `json:"requiresDelivery"`
	DeliveryFeeCents   int64      `json:"deliveryFeeCents,omitempty"`
	OperatorRequired   bool       `json:"operatorRequired"`
	OperatorFeeCents   int64      `json:"operatorFeeCents,omitempty"`
	CustomerNotes      string     `json:"customerNotes,omitempty"`
	OwnerNotes         string     `json:"ownerNotes,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

func BookingFromDomain(booking *domain.Booking) *Booking {
	if booking == nil {
		return nil
	}
	return &Booking{
		ID:                 booking.ID.String(),
		BookingNumber:      booking.BookingNumber,
		UserID:             booking.UserID.String(),
		EquipmentID:        booking.EquipmentID.String(),
		StartDate:          booking.StartDate,
		EndDate:            booking.EndDate,
		ActualStartDate:    booking.ActualStartDate,
		ActualEndDate:      booking.ActualEndDate,
		DurationHours:      booking.DurationHours,
		TotalAmountCents:   booking.TotalAmountCents,
		DepositAmountCents: booking.DepositAmountCents,
		Status:             string(booking.Status),
		Approved:           booking.Approved,
		PickupLocation:     booking.PickupLocation,
		DeliveryLocation:   booking.DeliveryLocation,
		RequiresDelivery:   booking.RequiresDelivery,
		DeliveryFeeCents:   booking.DeliveryFeeCents,
		OperatorRequired:   booking.OperatorRequired,
		OperatorFeeCents:   booking.OperatorFeeCents,
		CustomerNotes:      booking.CustomerNotes,
		OwnerNotes:         booking.OwnerNotes,
		CreatedAt:          booking.CreatedAt,
	}
}

func BookingsFromDomain(bookings []domain.Booking) []*Booking {
	result := make([]*Booking, len(bookings))
	for i := range bookings {
		result[i] = BookingFromDomain(&bookings[i])
	}
	return result
}

type Payment struct {
	ID                 string     `json:"id"`
	PaymentNumber      string     `json:"paymentNumber"`
	BookingID          string     `json:"bookingId"`
	UserID             string     `json:"userId"`
	AmountCents        int64      `json:"amountCents"`
	Method             string     `json:"method"`
	Status             string     `json:"status"`
	MpesaPhoneNumber   string     `json:"mpesaPhoneNumber,omitempty"`
	MpesaTransactionID string     `json:"mpesaTransactionId,omitempty"`
	Currency           string     `json:"currency"`
	ProcessingFeeCents int64      `json:"processingFeeCents,omitempty"`
	PlatformFeeCents   int64      `json:"platformFeeCents,omitempty"`
	TotalAmountCents   int64      `json:"totalAmountCents"`
	PaymentDate        *time.Time `json:"paymentDate,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

func PaymentFromDomain(payment *domain.Payment) *Payment {
	if payment == nil {
		return nil
	}
	return &Payment{
		ID:                 payment.ID.String(),
		PaymentNumber:      payment.PaymentNumber,
		BookingID:          payment.BookingID.String(),
		UserID:             payment.UserID.String(),
		AmountCents:        payment.AmountCents,
		Method:             string(payment.Method),
		Status:             string(payment.Status),
		MpesaPhoneNumber:   payment.MpesaPhoneNumber,
		MpesaTransactionID: payment.MpesaTransactionID,
		Currency:           payment.Currency,
		ProcessingFeeCents: payment.ProcessingFeeCents,
		PlatformFeeCents:   payment.PlatformFeeCents,
		TotalAmountCents:   payment.TotalAmountCents,
		PaymentDate:        payment.PaymentDate,
		CreatedAt:          payment.CreatedAt,
	}
}

func PaymentsFromDomain(payments []domain.Payment) []*Payment {
	result := make([]*Payment, len(payments))
	for i := range payments {
		result[i] = PaymentFromDomain(&payments[i])
	}
	return result
}

type Refund struct {
	ID          string     `json:"id"`
	PaymentID   string     `json:"paymentId"`
	AmountCents int64      `json:"amountCents"`
	Reason      string     `json:"reason,omitempty"`
	Status      string     `json:"status"`
	RefundDate  *time.Time `json:"refundDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func RefundFromDomain(refund *domain.Refund) *Refund {
	if refund == nil {
		return nil
	}
	return &Refund{
		ID:          refund.ID.String(),
		PaymentID:   refund.PaymentID.String(),
		AmountCents: refund.AmountCents,
		Reason:      refund.Reason,
		Status:      string(refund.Status),
		RefundDate:  refund.RefundDate,
		CreatedAt:   refund.CreatedAt,
	}
}
