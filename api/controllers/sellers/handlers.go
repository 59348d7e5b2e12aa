package sellers

import (
	"net/http"

	"github.com/merouaHba/EcommerceAPI/api/middleware"
	"github.com/merouaHba/EcommerceAPI/api/responses"
	internalsellers "github.com/merouaHba/EcommerceAPI/internal/sellers"
	pkgerrors "github.com/merouaHba/EcommerceAPI/pkg/errors"
	"github.com/merouaHba/EcommerceAPI/pkg/logger"
)

// PayoutStatus reports whether the calling seller can receive transfers.
func PayoutStatus(svc *internalsellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sellers service unavailable"))
			return
		}

		sellerID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing"))
			return
		}

		status, err := svc.CheckTransferCapability(ctx, sellerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
