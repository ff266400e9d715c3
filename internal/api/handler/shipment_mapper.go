package handler

import (
	"github.com/expresslane/courier-booking/internal/core/domain"
	"github.com/expresslane/courier-booking/internal/core/ports"
)

// --- Request → Service input ---

func toQuoteInput(p packageRequest) ports.QuoteInput {
	return ports.QuoteInput{
		DestinationCode: p.DestinationCode,
		LengthCm:        p.LengthCm,
		WidthCm:         p.WidthCm,
		HeightCm:        p.HeightCm,
		ActualWeightKg:  p.ActualWeightKg,
		WeightType:      p.WeightType,
	}
}

func toPartyInput(p partyRequest) ports.PartyInput {
	return ports.PartyInput{
		Name:       p.Name,
		Phone:      p.Phone,
		NationalID: p.NationalID,
		Address:    p.Address,
		PostalCode: p.PostalCode,
	}
}

func toBookInput(req bookShipmentRequest, clientID, idempotencyKey string) ports.BookShipmentInput {
	return ports.BookShipmentInput{
		Package:             toQuoteInput(req.Package),
		Sender:              toPartyInput(req.Sender),
		Receiver:            toPartyInput(req.Receiver),
		DocumentType:        req.DocumentType,
		UndertakingAccepted: req.UndertakingAccepted,
		UndertakingText:     req.UndertakingText,
		ClientID:            clientID,
		IdempotencyKey:      idempotencyKey,
	}
}

// --- Service result → HTTP response ---

func linksFor(trackingID string) shipmentLinks {
	return shipmentLinks{
		Self:   "/v1/shipments/" + trackingID,
		Status: "/v1/shipments/" + trackingID + "/status",
	}
}

func toQuoteResponse(q *domain.Quote) quoteResponse {
	return quoteResponse{
		DestinationCode:    q.DestinationCode,
		DestinationName:    q.DestinationName,
		TierID:             q.TierID,
		WeightType:         string(q.WeightType),
		VolumetricWeightKg: q.VolumetricWeightKg,
		ChargeableWeightKg: q.ChargeableWeightKg,
		BasePrice:          q.BasePrice,
		TaxAmount:          q.TaxAmount,
		FinalPrice:         q.FinalPrice,
		Currency:           q.Currency,
	}
}

func toBookResponse(r *ports.BookingResult) bookShipmentResponse {
	s := r.Shipment
	return bookShipmentResponse{
		TrackingID:      s.TrackingID,
		Status:          string(s.Status),
		DestinationCode: s.DestinationCode,
		FinalPrice:      s.FinalPrice,
		Currency:        s.Currency,
		FallbackID:      r.FallbackID,
		CreatedAt:       s.CreatedAt.UTC(),
		Links:           linksFor(s.TrackingID),
	}
}

func toPartyResponse(p domain.Party) partyResponse {
	return partyResponse{
		Name:       p.Name,
		Phone:      p.Phone,
		NationalID: p.NationalID,
		Address:    p.Address,
		PostalCode: p.PostalCode,
	}
}

func toGetResponse(s *domain.Shipment) getShipmentResponse {
	return getShipmentResponse{
		TrackingID:      s.TrackingID,
		ClientID:        s.ClientID,
		Status:          string(s.Status),
		CreatedAt:       s.CreatedAt.UTC(),
		Sender:          toPartyResponse(s.Sender),
		Receiver:        toPartyResponse(s.Receiver),
		DestinationCode: s.DestinationCode,
		DestinationName: s.DestinationName,
		Dimensions: dimensionsResponse{
			LengthCm: s.Dimensions.LengthCm,
			WidthCm:  s.Dimensions.WidthCm,
			HeightCm: s.Dimensions.HeightCm,
		},
		ActualWeightKg:      s.ActualWeightKg,
		WeightType:          string(s.WeightType),
		DocumentType:        string(s.DocumentType),
		VolumetricWeightKg:  s.VolumetricWeightKg,
		ChargeableWeightKg:  s.ChargeableWeightKg,
		BasePrice:           s.BasePrice,
		TaxAmount:           s.TaxAmount,
		FinalPrice:          s.FinalPrice,
		Currency:            s.Currency,
		FinalPriceBase:      s.FinalPriceBase,
		UndertakingAccepted: s.UndertakingAccepted,
		StatusHistory:       toStatusHistoryResponse(s.StatusHistory),
		Links:               linksFor(s.TrackingID),
	}
}

func toStatusHistoryResponse(items []domain.StatusHistoryEntry) []statusHistoryItemResponse {
	out := make([]statusHistoryItemResponse, len(items))
	for i, item := range items {
		out[i] = statusHistoryItemResponse{
			Status:    string(item.Status),
			Timestamp: item.Timestamp.UTC(),
			Notes:     item.Notes,
		}
	}
	return out
}

func toListResponse(r *ports.ListShipmentsResult) listShipmentsResponse {
	items := make([]shipmentSummaryResponse, len(r.Items))
	for i, s := range r.Items {
		items[i] = toSummaryResponse(s)
	}
	return listShipmentsResponse{
		Data: items,
		Pagination: paginationResponse{
			Total:      r.Total,
			Page:       r.Page,
			Limit:      r.Limit,
			TotalPages: r.TotalPages,
		},
	}
}

func toSummaryResponse(s *domain.Shipment) shipmentSummaryResponse {
	return shipmentSummaryResponse{
		TrackingID:      s.TrackingID,
		Status:          string(s.Status),
		CreatedAt:       s.CreatedAt.UTC(),
		SenderName:      s.Sender.Name,
		ReceiverName:    s.Receiver.Name,
		DestinationCode: s.DestinationCode,
		ChargeableKg:    s.ChargeableWeightKg,
		FinalPrice:      s.FinalPrice,
		Currency:        s.Currency,
		Links:           linksFor(s.TrackingID),
	}
}
