/*
Package httpengine is a demo HTTP application-layer provider: the one
concrete implementation of pkg/detect's collaborator interfaces
(AppLayerTxProvider, EngineTable, AlertSink, FileEventSource,
SignatureProvider) built to exercise the stateful core end to end,
for tests and for cmd/detectreplay.

It is deliberately small. Request-line and header parsing is enough to
drive method/URI/User-Agent/Cookie submatches and a crude
filename-from-multipart-body extraction, incrementally, one arbitrary
byte chunk at a time, mirroring the partial/suspendable delivery a real
TCP stream gives the detection core. Response-direction parsing is not
modeled; nothing the core's scenarios need lives to_client.

# Submatch lists

Five inspection engines are registered, in evaluation order: http_method,
http_uri, http_user_agent, http_cookie, http_file. The first four share
one decide() helper comparing a transaction field against the value the
signature populated in its sm_list entry. http_file is different: it is
the signature's positive "mark the offered file as stored" action as
well as its filename-restriction check, so it alone writes to the
transaction (marking its file stored) rather than doing a simple
string compare.

A signature that sets Filestore escalates any of the first four engines'
plain decline into a filestore decline (CANT_MATCH_FILESTORE), matching
the data model's filestore-candidate accounting even when the declining
engine has nothing to do with files at all (method or URI mismatch on a
filestore rule is still a filestore decline).
*/
package httpengine
