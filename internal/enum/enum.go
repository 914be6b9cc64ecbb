package enum

// ── Wizard ──

// Steps are ints because the UI addresses them by position.
const (
	StepBuildCart    = 1
	StepCustomerData = 2
	StepReview       = 3
)

// ── Persisted order lifecycle ──

const (
	OrderStatusNew       = "NEW"
	OrderStatusInKitchen = "IN_KITCHEN"
	OrderStatusReady     = "READY"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// ── Order configuration ──

const (
	FulfillmentPickup   = "PICKUP"
	FulfillmentDelivery = "DELIVERY"
)

const (
	ChannelCounter  = "COUNTER"
	ChannelPhone    = "PHONE"
	ChannelWhatsapp = "WHATSAPP"
	ChannelWeb      = "WEB"
)

const (
	TimingASAP      = "ASAP"
	TimingScheduled = "SCHEDULED"
)

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodDebit    = "DEBIT"
	PaymentMethodCredit   = "CREDIT"
	PaymentMethodTransfer = "TRANSFER"
	PaymentMethodWallet   = "WALLET"
)

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
)

// ValidFulfillment reports whether s is a known fulfillment type.
func ValidFulfillment(s string) bool {
	switch s {
	case FulfillmentPickup, FulfillmentDelivery:
		return true
	}
	return false
}

// ValidChannel reports whether s is a known sales channel.
func ValidChannel(s string) bool {
	switch s {
	case ChannelCounter, ChannelPhone, ChannelWhatsapp, ChannelWeb:
		return true
	}
	return false
}

// ValidTiming reports whether s is a known timing mode.
func ValidTiming(s string) bool {
	switch s {
	case TimingASAP, TimingScheduled:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether s is a known payment method.
func ValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodDebit, PaymentMethodCredit,
		PaymentMethodTransfer, PaymentMethodWallet:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid:
		return true
	}
	return false
}

// InProduction reports whether the kitchen has already started on an
// order. Editing such an order stays allowed; callers surface a
// persistent notice instead of blocking.
func InProduction(status string) bool {
	return status == OrderStatusInKitchen || status == OrderStatusReady
}
