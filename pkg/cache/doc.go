// Package cache предоставляет generic LRU-кэш фиксированной емкости.
//
// LRU хранит записи в map и двусвязном списке использования, поэтому
// Has, Get и Set работают за O(1). При переполнении вытесняется ровно одна
// запись - та, что дольше всех не использовалась.
//
// LRU рассчитан на одного вызывающего. Cache оборачивает его мьютексом
// для использования из нескольких горутин.
package cache
