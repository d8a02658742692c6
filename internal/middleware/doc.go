// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 這個包目前只有會話憑證驗證：把請求攜帶的不透明憑證
// 透過房間存放區的索引反查成（房間、角色提示）。
package middleware
