package RTSP

const (
	RTSP_VERSION = "RTSP/1.0"
)

type Method string

const (
	OPTIONS       Method = "OPTIONS"
	DESCRIBE      Method = "DESCRIBE"
	ANNOUNCE      Method = "ANNOUNCE"
	SETUP         Method = "SETUP"
	PLAY          Method = "PLAY"
	PAUSE         Method = "PAUSE"
	RECORD        Method = "RECORD"
	REDIRECT      Method = "REDIRECT"
	TEARDOWN      Method = "TEARDOWN"
	GET_PARAMETER Method = "GET_PARAMETER"
	SET_PARAMETER Method = "SET_PARAMETER"
	UNKNOWN       Method = "UNKNOWN"
)

var knownMethods = map[string]Method{
	string(OPTIONS):       OPTIONS,
	string(DESCRIBE):      DESCRIBE,
	string(ANNOUNCE):      ANNOUNCE,
	string(SETUP):         SETUP,
	string(PLAY):          PLAY,
	string(PAUSE):         PAUSE,
	string(RECORD):        RECORD,
	string(REDIRECT):      REDIRECT,
	string(TEARDOWN):      TEARDOWN,
	string(GET_PARAMETER): GET_PARAMETER,
	string(SET_PARAMETER): SET_PARAMETER,
}

// ParseMethod is case-sensitive like the protocol; anything else is UNKNOWN.
func ParseMethod(s string) Method {
	if m, ok := knownMethods[s]; ok {
		return m
	}
	return UNKNOWN
}

const (
	Accept           = "Accept"
	Authorization    = "Authorization"
	CacheControl     = "Cache-Control"
	ContentBase      = "Content-Base"
	ContentLength    = "Content-Length"
	ContentLocation  = "Content-Location"
	ContentType      = "Content-Type"
	CSeq             = "CSeq"
	Public           = "Public"
	Range            = "Range"
	RtpInfo          = "RTP-Info"
	Server           = "Server"
	SessionID        = "Session"
	Transport        = "Transport"
	UserAgent        = "User-Agent"
	WWW_Authenticate = "WWW-Authenticate"
)

var canonicalHeaders = map[string]string{}

func init() {
	for _, name := range []string{
		Accept, Authorization, CacheControl, ContentBase, ContentLength, ContentLocation,
		ContentType, CSeq, Public, Range, RtpInfo, Server, SessionID, Transport, UserAgent,
		WWW_Authenticate,
	} {
		canonicalHeaders[lower(name)] = name
	}
}

type StatusCode int

// StatusUnknown never goes on the wire. It tags failures that happened
// below RTSP, and peer codes missing from the status table.
const StatusUnknown StatusCode = -1

const (
	StatusContinue                       StatusCode = 100
	StatusOK                             StatusCode = 200
	StatusCreated                        StatusCode = 201
	StatusLowOnStorageSpace              StatusCode = 250
	StatusMultipleChoices                StatusCode = 300
	StatusMovedPermanently               StatusCode = 301
	StatusMovedTemporarily               StatusCode = 302
	StatusSeeOther                       StatusCode = 303
	StatusNotModified                    StatusCode = 304
	StatusUseProxy                       StatusCode = 305
	StatusBadRequest                     StatusCode = 400
	StatusUnauthorized                   StatusCode = 401
	StatusPaymentRequired                StatusCode = 402
	StatusForbidden                      StatusCode = 403
	StatusNotFound                       StatusCode = 404
	StatusMethodNotAllowed               StatusCode = 405
	StatusNotAcceptable                  StatusCode = 406
	StatusProxyAuthRequired              StatusCode = 407
	StatusRequestTimeout                 StatusCode = 408
	StatusGone                           StatusCode = 410
	StatusLengthRequired                 StatusCode = 411
	StatusPreconditionFailed             StatusCode = 412
	StatusRequestEntityTooLarge          StatusCode = 413
	StatusRequestURITooLarge             StatusCode = 414
	StatusUnsupportedMediaType           StatusCode = 415
	StatusParameterNotUnderstood         StatusCode = 451
	StatusConferenceNotFound             StatusCode = 452
	StatusNotEnoughBandwidth             StatusCode = 453
	StatusSessionNotFound                StatusCode = 454
	StatusMethodNotValidInThisState      StatusCode = 455
	StatusHeaderFieldNotValidForResource StatusCode = 456
	StatusInvalidRange                   StatusCode = 457
	StatusParameterIsReadOnly            StatusCode = 458
	StatusAggregateOperationNotAllowed   StatusCode = 459
	StatusOnlyAggregateOperationAllowed  StatusCode = 460
	StatusUnsupportedTransport           StatusCode = 461
	StatusDestinationUnreachable         StatusCode = 462
	StatusInternalServerError            StatusCode = 500
	StatusNotImplemented                 StatusCode = 501
	StatusBadGateway                     StatusCode = 502
	StatusServiceUnavailable             StatusCode = 503
	StatusGatewayTimeout                 StatusCode = 504
	StatusRTSPVersionNotSupported        StatusCode = 505
	StatusOptionNotSupported             StatusCode = 551
)

var statusText = map[StatusCode]string{
	StatusContinue:                       "Continue",
	StatusOK:                             "OK",
	StatusCreated:                        "Created",
	StatusLowOnStorageSpace:              "Low on Storage Space",
	StatusMultipleChoices:                "Multiple Choices",
	StatusMovedPermanently:               "Moved Permanently",
	StatusMovedTemporarily:               "Moved Temporarily",
	StatusSeeOther:                       "See Other",
	StatusNotModified:                    "Not Modified",
	StatusUseProxy:                       "Use Proxy",
	StatusBadRequest:                     "Bad Request",
	StatusUnauthorized:                   "Unauthorized",
	StatusPaymentRequired:                "Payment Required",
	StatusForbidden:                      "Forbidden",
	StatusNotFound:                       "Not Found",
	StatusMethodNotAllowed:               "Method Not Allowed",
	StatusNotAcceptable:                  "Not Acceptable",
	StatusProxyAuthRequired:              "Proxy Authentication Required",
	StatusRequestTimeout:                 "Request Time-out",
	StatusGone:                           "Gone",
	StatusLengthRequired:                 "Length Required",
	StatusPreconditionFailed:             "Precondition Failed",
	StatusRequestEntityTooLarge:          "Request Entity Too Large",
	StatusRequestURITooLarge:             "Request-URI Too Large",
	StatusUnsupportedMediaType:           "Unsupported Media Type",
	StatusParameterNotUnderstood:         "Parameter Not Understood",
	StatusConferenceNotFound:             "Conference Not Found",
	StatusNotEnoughBandwidth:             "Not Enough Bandwidth",
	StatusSessionNotFound:                "Session Not Found",
	StatusMethodNotValidInThisState:      "Method Not Valid in This State",
	StatusHeaderFieldNotValidForResource: "Header Field Not Valid for Resource",
	StatusInvalidRange:                   "Invalid Range",
	StatusParameterIsReadOnly:            "Parameter Is Read-Only",
	StatusAggregateOperationNotAllowed:   "Aggregate operation not allowed",
	StatusOnlyAggregateOperationAllowed:  "Only aggregate operation allowed",
	StatusUnsupportedTransport:           "Unsupported transport",
	StatusDestinationUnreachable:         "Destination unreachable",
	StatusInternalServerError:            "Internal Server Error",
	StatusNotImplemented:                 "Not Implemented",
	StatusBadGateway:                     "Bad Gateway",
	StatusServiceUnavailable:             "Service Unavailable",
	StatusGatewayTimeout:                 "Gateway Time-out",
	StatusRTSPVersionNotSupported:        "RTSP Version not supported",
	StatusOptionNotSupported:             "Option not supported",
}

// StatusFromCode maps a wire code onto the table, or StatusUnknown.
func StatusFromCode(code int) StatusCode {
	if _, ok := statusText[StatusCode(code)]; ok {
		return StatusCode(code)
	}
	return StatusUnknown
}

func (s StatusCode) Reason() string {
	if text, ok := statusText[s]; ok {
		return text
	}
	return "Unknown"
}

func (s StatusCode) IsSuccess() bool {
	return s >= 200 && s < 300
}

func (s StatusCode) String() string {
	if s == StatusUnknown {
		return "unknown"
	}
	return itoa(int(s)) + " " + s.Reason()
}
